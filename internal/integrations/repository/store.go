// Package repository persists admin-owned configuration: connected calendar
// integrations, appointment types and the business-hours blob.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/timfee/scheduler-sub001/pkg/config"
	"github.com/timfee/scheduler-sub001/pkg/model"
)

var ErrNotFound = errors.New("not found")

const businessHoursDocID = "business_hours"

type Store interface {
	// GetBookingIntegration returns the integration flagged as the booking
	// target, or nil when no calendar is connected.
	GetBookingIntegration(ctx context.Context) (*model.Integration, error)

	GetBusinessHours(ctx context.Context) (*model.BusinessHours, error)
	PutBusinessHours(ctx context.Context, hours *model.BusinessHours) error

	ListAppointmentTypes(ctx context.Context) ([]*model.AppointmentType, error)
	GetAppointmentType(ctx context.Context, id string) (*model.AppointmentType, error)
	CreateAppointmentType(ctx context.Context, at *model.AppointmentType) error
	DeleteAppointmentType(ctx context.Context, id string) error
}

type mongoStore struct {
	integrations *mongo.Collection
	types        *mongo.Collection
	settings     *mongo.Collection
}

func NewStore(cfg *config.Config) Store {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoStore{
		integrations: db.Collection("integrations"),
		types:        db.Collection("appointment_types"),
		settings:     db.Collection("settings"),
	}
}

func (s *mongoStore) GetBookingIntegration(ctx context.Context) (*model.Integration, error) {
	var integration model.Integration
	err := s.integrations.FindOne(ctx, bson.M{"booking": true}).Decode(&integration)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

type businessHoursDoc struct {
	ID    string              `bson:"_id"`
	Hours model.BusinessHours `bson:"hours"`
}

func (s *mongoStore) GetBusinessHours(ctx context.Context) (*model.BusinessHours, error) {
	var doc businessHoursDoc
	err := s.settings.FindOne(ctx, bson.M{"_id": businessHoursDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc.Hours, nil
}

func (s *mongoStore) PutBusinessHours(ctx context.Context, hours *model.BusinessHours) error {
	doc := businessHoursDoc{ID: businessHoursDocID, Hours: *hours}
	opts := options.Replace().SetUpsert(true)
	_, err := s.settings.ReplaceOne(ctx, bson.M{"_id": businessHoursDocID}, doc, opts)
	return err
}

func (s *mongoStore) ListAppointmentTypes(ctx context.Context) ([]*model.AppointmentType, error) {
	cursor, err := s.types.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*model.AppointmentType
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *mongoStore) GetAppointmentType(ctx context.Context, id string) (*model.AppointmentType, error) {
	var at model.AppointmentType
	err := s.types.FindOne(ctx, bson.M{"_id": id}).Decode(&at)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (s *mongoStore) CreateAppointmentType(ctx context.Context, at *model.AppointmentType) error {
	if at.ID == "" {
		at.ID = uuid.NewString()
	}
	at.CreatedAt = time.Now().UTC()
	_, err := s.types.InsertOne(ctx, at)
	return err
}

func (s *mongoStore) DeleteAppointmentType(ctx context.Context, id string) error {
	res, err := s.types.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
