package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"guildkeeper/internal/models"
	"guildkeeper/internal/observability"
	"guildkeeper/internal/policy"
	"guildkeeper/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// AvatarURLPrefix is where profile images are served from.
	AvatarURLPrefix      = "/uploads/profiles/"
	AvatarThumbnailSize  = 256
	WebPQuality          = 80
	DefaultAvatarMaxSize = 5 * 1024 * 1024
)

var allowedAvatarExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// AvatarUpload is one uploaded profile image.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// AvatarResult describes the stored avatar.
type AvatarResult struct {
	Avatar          string          `json:"avatar"`
	AvatarThumbnail string          `json:"avatarThumbnail"`
	User            *models.Account `json:"user"`
}

// AvatarService stores profile images and their thumbnails on local disk.
type AvatarService struct {
	users    repository.UserRepository
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewAvatarService stores files under uploadDir/profiles. maxBytes <= 0 selects the 5 MB default.
func NewAvatarService(users repository.UserRepository, uploadDir string, maxBytes int64) *AvatarService {
	if maxBytes <= 0 {
		maxBytes = DefaultAvatarMaxSize
	}
	return &AvatarService{
		users:    users,
		dir:      filepath.Join(uploadDir, "profiles"),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Dir is the directory holding profile images.
func (s *AvatarService) Dir() string {
	return s.dir
}

// Upload validates and stores a new avatar for userID, replacing the previous one.
func (s *AvatarService) Upload(ctx context.Context, actor policy.Actor, userID string, in AvatarUpload) (res *AvatarResult, err error) {
	defer func() {
		outcome := "success"
		switch {
		case models.IsCode(err, models.CodeValidation):
			outcome = "rejected"
		case err != nil:
			outcome = "error"
		}
		observability.AvatarUploads.WithLabelValues(outcome).Inc()
	}()

	if err := policy.Authorize(actor, userID, "You do not have permission to change this user's avatar"); err != nil {
		return nil, err
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("Image is required")
	}
	if int64(len(in.Content)) > s.maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	if !allowedAvatarExts[ext] {
		return nil, models.NewValidationError("Only image files are allowed (jpeg, jpg, png, gif, webp)")
	}
	detected := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Only image files are allowed (jpeg, jpg, png, gif, webp)")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detected) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, "User")
	}

	thumb, err := encodeWebP(resizeToFit(decoded, AvatarThumbnailSize, AvatarThumbnailSize), WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	name := fmt.Sprintf("profile-%s-%d%s", userID, s.now().UnixMilli(), ext)
	thumbName := strings.TrimSuffix(name, ext) + "-thumb.webp"
	written := []string{filepath.Join(s.dir, name), filepath.Join(s.dir, thumbName)}
	if err := writeBytesToFile(written[0], in.Content); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(written[1], thumb); err != nil {
		cleanupImageFiles(written)
		return nil, models.NewInternalError(err)
	}

	previous := *account
	avatar, thumbnail := AvatarURLPrefix+name, AvatarURLPrefix+thumbName
	account.Avatar, account.AvatarThumbnail = &avatar, &thumbnail
	if err := s.users.Update(ctx, account); err != nil {
		cleanupImageFiles(written)
		return nil, repoError(err, "User")
	}
	s.RemoveFiles(&previous)

	return &AvatarResult{Avatar: avatar, AvatarThumbnail: thumbnail, User: account}, nil
}

// Remove deletes the avatar files of userID and clears the account fields.
func (s *AvatarService) Remove(ctx context.Context, actor policy.Actor, userID string) (*models.Account, error) {
	if err := policy.Authorize(actor, userID, "You do not have permission to delete this user's avatar"); err != nil {
		return nil, err
	}
	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, "User")
	}

	s.RemoveFiles(account)
	account.Avatar, account.AvatarThumbnail = nil, nil
	if err := s.users.Update(ctx, account); err != nil {
		return nil, repoError(err, "User")
	}
	return account, nil
}

// RemoveFiles deletes the stored image files referenced by account. Missing files are ignored.
func (s *AvatarService) RemoveFiles(account *models.Account) {
	for _, ref := range []*string{account.Avatar, account.AvatarThumbnail} {
		if ref == nil || *ref == "" {
			continue
		}
		// Only the base name is trusted so a stored value cannot point outside the directory.
		p := filepath.Join(s.dir, path.Base(*ref))
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove avatar file", "path", p, "error", err)
		}
	}
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupImageFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
