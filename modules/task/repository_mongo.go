package task

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/taskboard/domain/task"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tasksCollection = "tasks"

// MongoTaskRepository handles task persistence in MongoDB.
type MongoTaskRepository struct {
	client *mongo.Client
	tasks  *mongo.Collection
}

var _ TaskRepository = (*MongoTaskRepository)(nil)

// NewMongoTaskRepository creates the repository and its list indexes.
func NewMongoTaskRepository(ctx context.Context, client *mongo.Client, db *mongo.Database) (*MongoTaskRepository, error) {
	tasks := db.Collection(tasksCollection)
	_, err := tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "creator_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "assignee", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task indexes: %w", err)
	}
	return &MongoTaskRepository{client: client, tasks: tasks}, nil
}

// Create inserts a new task.
func (r *MongoTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	_, err := r.tasks.InsertOne(ctx, task)
	return err
}

// FindByID finds a task by ID.
func (r *MongoTaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// Update sets the mutable fields and increments the revision atomically.
func (r *MongoTaskRepository) Update(ctx context.Context, task *domain.Task, expectedRevision int64) error {
	filter := bson.M{"_id": task.ID}
	if expectedRevision > 0 {
		filter["revision"] = expectedRevision
	}

	set := bson.M{
		"title":       task.Title,
		"description": task.Description,
		"due_date":    task.DueDate,
		"priority":    task.Priority,
		"status":      task.Status,
		"notes":       task.Notes,
		"assignee":    task.Assignee,
		"subtasks":    task.Subtasks,
		"updated_at":  task.UpdatedAt,
	}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"revision": 1},
	}
	if task.CompletionDate != nil {
		set["completion_date"] = task.CompletionDate
	} else {
		update["$unset"] = bson.M{"completion_date": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var fresh domain.Task
	err := r.tasks.FindOneAndUpdate(ctx, filter, update, opts).Decode(&fresh)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return r.missOrStale(ctx, task.ID)
		}
		return err
	}
	*task = fresh
	return nil
}

func (r *MongoTaskRepository) missOrStale(ctx context.Context, id string) error {
	count, err := r.tasks.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrTaskNotFound
	}
	return ErrStaleRevision
}

// Delete removes a task by ID.
func (r *MongoTaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// List returns the tasks matching filter ordered by due date.
func (r *MongoTaskRepository) List(ctx context.Context, filter ListFilter) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0)
	if filter.UserID == "" {
		return tasks, nil
	}

	query := bson.M{"$or": bson.A{
		bson.M{"creator_id": filter.UserID},
		bson.M{"assignee": filter.UserID},
	}}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "created_at", Value: 1}})
	cur, err := r.tasks.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Ping checks the server connection.
func (r *MongoTaskRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (r *MongoTaskRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
