package repository

import (
	"context"
	"fmt"
	"strings"

	"healthsurveys/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PathSeparator joins ancestor names when rendering a location path.
const PathSeparator = " / "

// LocationRepo handles MongoDB operations for the org-unit hierarchy
type LocationRepo interface {
	GetByID(ctx context.Context, id string) (*model.Location, error)
	ListByInstanceLevel(ctx context.Context, instanceKey string, hierarchyLevel int) ([]model.Location, error)
	// Path resolves the full ancestor chain root -> leaf as a display
	// string. Errors if the chain is broken or does not strictly
	// descend in hierarchy level.
	Path(ctx context.Context, id string) (string, error)
	UpsertMany(ctx context.Context, locations []model.Location) error
}

type locationRepo struct {
	collection *mongo.Collection
}

// NewLocationRepo creates a new location repository
func NewLocationRepo(db *mongo.Database) LocationRepo {
	r := &locationRepo{
		collection: db.Collection("locations"),
	}
	r.collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "instanceKey", Value: 1}, {Key: "hierarchyLevel", Value: 1}},
	})
	return r
}

func (r *locationRepo) GetByID(ctx context.Context, id string) (*model.Location, error) {
	var loc model.Location
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&loc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepo) ListByInstanceLevel(ctx context.Context, instanceKey string, hierarchyLevel int) ([]model.Location, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"instanceKey": instanceKey, "hierarchyLevel": hierarchyLevel},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var locations []model.Location
	if err := cursor.All(ctx, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *locationRepo) Path(ctx context.Context, id string) (string, error) {
	var names []string
	currentID := id
	prevLevel := model.MaxHierarchyLevel + 1

	for depth := 0; depth <= model.MaxHierarchyLevel; depth++ {
		loc, err := r.GetByID(ctx, currentID)
		if err != nil {
			return "", err
		}
		if loc == nil {
			return "", fmt.Errorf("location %s not found", currentID)
		}
		if loc.HierarchyLevel >= prevLevel {
			return "", fmt.Errorf("location %s: hierarchy does not strictly descend", id)
		}
		prevLevel = loc.HierarchyLevel

		names = append([]string{loc.Name}, names...)
		if loc.ParentID == "" {
			return strings.Join(names, PathSeparator), nil
		}
		currentID = loc.ParentID
	}

	return "", fmt.Errorf("location %s: ancestor chain exceeds max depth", id)
}

func (r *locationRepo) UpsertMany(ctx context.Context, locations []model.Location) error {
	if len(locations) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(locations))
	for i := range locations {
		loc := locations[i]
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": loc.ID}).
			SetReplacement(loc).
			SetUpsert(true))
	}
	_, err := r.collection.BulkWrite(ctx, models)
	return err
}
