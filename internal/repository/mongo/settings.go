package mongo

import (
	"context"

	"swingbot/internal/repository/mongo/structs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type SettingsRepository struct {
	conn       *mongo.Client
	collection *mongo.Collection
}

func NewSettingsRepository(conn *mongo.Client) *SettingsRepository {
	collection := conn.Database("settings").Collection("symbols")

	return &SettingsRepository{conn: conn, collection: collection}
}

// SetDefault seeds the settings document for a symbol unless one exists.
func (r *SettingsRepository) SetDefault(defaults structs.Settings) error {
	check, err := r.Load(defaults.Symbol)
	if err != nil && err != mongo.ErrNoDocuments {
		return err
	}

	if primitive.ObjectID.IsZero(check.ID) {
		if _, err := r.collection.InsertOne(context.TODO(), defaults); err != nil {
			return err
		}
	}

	return nil
}

func (r *SettingsRepository) Load(symbol string) (*structs.Settings, error) {
	var result structs.Settings

	if err := r.collection.FindOne(context.TODO(), bson.D{{Key: "symbol", Value: symbol}}).Decode(&result); err != nil {
		return &result, err
	}

	return &result, nil
}

func (r *SettingsRepository) UpdateStatus(id primitive.ObjectID, status structs.SymbolStatus) error {
	_, err := r.collection.UpdateOne(
		context.TODO(),
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: status}}}},
	)
	if err != nil {
		return err
	}

	return nil
}
