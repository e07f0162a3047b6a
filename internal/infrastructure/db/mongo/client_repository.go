package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskdash/dashboard/internal/core/domain"
)

const clientsCollection = "clients"

// ClientRepository reads the customer catalog. The dashboard never writes
// to it.
type ClientRepository struct {
	coll *mongo.Collection
}

func NewClientRepository(db *mongo.Database) *ClientRepository {
	return &ClientRepository{coll: db.Collection(clientsCollection)}
}

type mongoTaskCounts struct {
	Total      int `bson:"total"`
	Completed  int `bson:"completed"`
	Pending    int `bson:"pending"`
	InProgress int `bson:"in_progress"`
}

type mongoClient struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Email      string             `bson:"email"`
	Company    string             `bson:"company"`
	Avatar     string             `bson:"avatar,omitempty"`
	TasksCount mongoTaskCounts    `bson:"tasks_count"`
	CreatedAt  int64              `bson:"created_at"`
}

// ListClients returns every client ordered by name.
func (r *ClientRepository) ListClients(ctx context.Context) ([]domain.Client, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find clients: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoClient
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}

	out := make([]domain.Client, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDomainClient(d))
	}
	return out, nil
}

// Ping reports whether the deployment is reachable.
func (r *ClientRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func toDomainClient(d mongoClient) domain.Client {
	return domain.Client{
		ID:      d.ID.Hex(),
		Name:    d.Name,
		Email:   d.Email,
		Company: d.Company,
		Avatar:  d.Avatar,
		TasksCount: domain.TaskCounts{
			Total:      d.TasksCount.Total,
			Completed:  d.TasksCount.Completed,
			Pending:    d.TasksCount.Pending,
			InProgress: d.TasksCount.InProgress,
		},
		CreatedAt: unixToTime(d.CreatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
