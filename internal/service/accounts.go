package service

import (
	"strings"

	"guildkeeper/internal/models"
	"guildkeeper/internal/validation"
)

// AccountFields is the self-editable part of an account. Nil fields are left unchanged.
type AccountFields struct {
	Name      *string `json:"name"`
	Surname   *string `json:"surname"`
	Email     *string `json:"email"`
	BirthDate *string `json:"birthDate"`
	Gender    *string `json:"gender"`
}

// apply validates the set fields and copies them onto a. Every problem is recorded in errs.
// With required, name, email and birth date must be present.
func (f AccountFields) apply(errs *validation.Errors, a *models.Account, required bool) {
	if f.Name != nil {
		name := strings.TrimSpace(*f.Name)
		if err := validation.ValidateLength("name", name, 2, 50); err != nil {
			errs.Add(err)
		} else {
			a.Name = name
		}
	} else if required {
		errs.Addf("name is required")
	}

	// An empty surname clears it.
	if f.Surname != nil {
		surname := strings.TrimSpace(*f.Surname)
		if surname != "" {
			errs.Add(validation.ValidateLength("surname", surname, 2, 50))
		}
		a.Surname = surname
	}

	if f.Email != nil {
		email := validation.NormalizeEmail(*f.Email)
		if err := validation.ValidateEmail(email); err != nil {
			errs.Add(err)
		} else {
			a.Email = email
		}
	} else if required {
		errs.Addf("email is required")
	}

	if f.BirthDate != nil {
		birth, err := validation.ParseDate(*f.BirthDate)
		if err != nil {
			errs.Add(err)
		} else {
			a.BirthDate = birth
		}
	} else if required {
		errs.Addf("birth date is required")
	}

	if f.Gender != nil {
		gender := models.Gender(strings.ToLower(strings.TrimSpace(*f.Gender)))
		if !gender.Valid() {
			errs.Addf("gender must be one of: male, female, other")
		} else {
			a.Gender = gender
		}
	}
}
