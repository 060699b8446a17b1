package mongostore

import (
	"regexp"

	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoDB stage names used by the populate pipelines.
const (
	stageMatch  = "$match"
	stageSort   = "$sort"
	stageSkip   = "$skip"
	stageLimit  = "$limit"
	stageLookup = "$lookup"
)

func userFilter(f repository.UserFilter) bson.D {
	filter := bson.D{}
	if f.Role != "" {
		filter = append(filter, bson.E{Key: "role", Value: f.Role})
	}
	if f.Active != nil {
		filter = append(filter, bson.E{Key: "active", Value: *f.Active})
	}
	if f.Gender != "" {
		filter = append(filter, bson.E{Key: "gender", Value: f.Gender})
	}
	if f.Search != "" {
		re := bson.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: re}},
			bson.D{{Key: "surname", Value: re}},
			bson.D{{Key: "email", Value: re}},
		}})
	}
	return filter
}

func postFilter(f repository.PostFilter) bson.D {
	filter := bson.D{}
	if f.Public != nil {
		filter = append(filter, bson.E{Key: "public", Value: *f.Public})
	}
	if f.AuthorID != "" {
		filter = append(filter, bson.E{Key: "author", Value: f.AuthorID})
	}
	if len(f.Types) > 0 {
		filter = append(filter, bson.E{Key: "type", Value: bson.D{{Key: "$in", Value: f.Types}}})
	}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if len(f.CategoryIDs) > 0 {
		filter = append(filter, bson.E{Key: "categories", Value: bson.D{{Key: "$in", Value: f.CategoryIDs}}})
	}
	if len(f.TagIDs) > 0 {
		filter = append(filter, bson.E{Key: "tags", Value: bson.D{{Key: "$in", Value: f.TagIDs}}})
	}
	if f.Search != "" {
		filter = append(filter, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: f.Search}}})
	}
	if f.MinLevel != nil {
		filter = append(filter, bson.E{Key: "level.max", Value: bson.D{{Key: "$gte", Value: *f.MinLevel}}})
	}
	if f.MaxLevel != nil {
		filter = append(filter, bson.E{Key: "level.min", Value: bson.D{{Key: "$lte", Value: *f.MaxLevel}}})
	}
	return filter
}

// sortDoc orders by the sort field with _id as a tiebreaker so pages do not overlap.
func sortDoc(s repository.Sort) bson.D {
	dir := 1
	if s.Desc {
		dir = -1
	}
	if s.Field == "" || s.Field == "_id" {
		return bson.D{{Key: "_id", Value: dir}}
	}
	return bson.D{{Key: s.Field, Value: dir}, {Key: "_id", Value: dir}}
}

func findPage(s repository.Sort, page models.Page) *options.FindOptionsBuilder {
	return options.Find().
		SetSort(sortDoc(s)).
		SetSkip(int64(page.Skip())).
		SetLimit(int64(page.Limit))
}

func lookup(from, localField, as string) bson.D {
	return bson.D{{Key: stageLookup, Value: bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: as},
	}}}
}

// pagedPipeline matches, sorts and pages before running the given lookups.
func pagedPipeline(filter bson.D, s repository.Sort, page models.Page, lookups ...bson.D) mongo.Pipeline {
	pipe := mongo.Pipeline{
		{{Key: stageMatch, Value: filter}},
		{{Key: stageSort, Value: sortDoc(s)}},
		{{Key: stageSkip, Value: int64(page.Skip())}},
		{{Key: stageLimit, Value: int64(page.Limit)}},
	}
	return append(pipe, lookups...)
}
