package repository

import (
	"context"
	"fmt"
	"time"

	"healthsurveys/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MappingRepo handles MongoDB operations for question/DHIS2 bindings
// and option-set code translations
type MappingRepo interface {
	GetByQuestionID(ctx context.Context, questionID string) (*model.QuestionMapping, error)
	GetByElementIDs(ctx context.Context, elementIDs []string) ([]*model.QuestionMapping, error)

	// Upsert inserts or replaces the single mapping row for the
	// question. Delete removes it; both are idempotent.
	Upsert(ctx context.Context, m *model.QuestionMapping) error
	Delete(ctx context.Context, questionID string) error

	// SaveBulk applies delete-then-insert semantics for every entry in
	// one multi-document transaction: rows are inserted only for
	// non-empty data element IDs, and any failure rolls the whole
	// batch back.
	SaveBulk(ctx context.Context, bindings map[string]model.MappingBinding) error

	// Option-set code translations, replaced wholesale per set.
	ReplaceOptionSetMappings(ctx context.Context, optionSetID string, pairs []model.OptionSetMapping) error
	GetOptionSetMappings(ctx context.Context, optionSetID string) ([]model.OptionSetMapping, error)
}

type mappingRepo struct {
	client     *mongo.Client
	mappings   *mongo.Collection
	optionMaps *mongo.Collection
}

// NewMappingRepo creates a new mapping repository
func NewMappingRepo(db *mongo.Database) MappingRepo {
	r := &mappingRepo{
		client:     db.Client(),
		mappings:   db.Collection("question_dhis2_mappings"),
		optionMaps: db.Collection("dhis2_option_set_mappings"),
	}
	r.mappings.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "dataElementId", Value: 1}},
	})
	r.optionMaps.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "optionSetId", Value: 1}, {Key: "optionCode", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return r
}

func (r *mappingRepo) GetByQuestionID(ctx context.Context, questionID string) (*model.QuestionMapping, error) {
	var m model.QuestionMapping
	err := r.mappings.FindOne(ctx, bson.M{"_id": questionID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mappingRepo) GetByElementIDs(ctx context.Context, elementIDs []string) ([]*model.QuestionMapping, error) {
	if len(elementIDs) == 0 {
		return nil, nil
	}
	cursor, err := r.mappings.Find(ctx, bson.M{"dataElementId": bson.M{"$in": elementIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var mappings []*model.QuestionMapping
	if err := cursor.All(ctx, &mappings); err != nil {
		return nil, err
	}
	return mappings, nil
}

func (r *mappingRepo) Upsert(ctx context.Context, m *model.QuestionMapping) error {
	m.UpdatedAt = time.Now()
	_, err := r.mappings.ReplaceOne(ctx, bson.M{"_id": m.QuestionID}, m,
		options.Replace().SetUpsert(true))
	return err
}

func (r *mappingRepo) Delete(ctx context.Context, questionID string) error {
	_, err := r.mappings.DeleteOne(ctx, bson.M{"_id": questionID})
	return err
}

func (r *mappingRepo) SaveBulk(ctx context.Context, bindings map[string]model.MappingBinding) error {
	if len(bindings) == 0 {
		return nil
	}

	questionIDs := make([]string, 0, len(bindings))
	var inserts []interface{}
	now := time.Now()
	for qid, b := range bindings {
		questionIDs = append(questionIDs, qid)
		if b.DataElementID == "" {
			continue
		}
		inserts = append(inserts, &model.QuestionMapping{
			QuestionID:    qid,
			DataElementID: b.DataElementID,
			OptionSetID:   b.OptionSetID,
			UpdatedAt:     now,
		})
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.mappings.DeleteMany(sessCtx, bson.M{"_id": bson.M{"$in": questionIDs}}); err != nil {
			return nil, err
		}
		if len(inserts) > 0 {
			if _, err := r.mappings.InsertMany(sessCtx, inserts); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (r *mappingRepo) ReplaceOptionSetMappings(ctx context.Context, optionSetID string, pairs []model.OptionSetMapping) error {
	if _, err := r.optionMaps.DeleteMany(ctx, bson.M{"optionSetId": optionSetID}); err != nil {
		return err
	}
	if len(pairs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(pairs))
	for i := range pairs {
		pairs[i].OptionSetID = optionSetID
		docs = append(docs, pairs[i])
	}
	_, err := r.optionMaps.InsertMany(ctx, docs)
	return err
}

func (r *mappingRepo) GetOptionSetMappings(ctx context.Context, optionSetID string) ([]model.OptionSetMapping, error) {
	cursor, err := r.optionMaps.Find(ctx, bson.M{"optionSetId": optionSetID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pairs []model.OptionSetMapping
	if err := cursor.All(ctx, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}
