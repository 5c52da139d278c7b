package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_bazar/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Brand       string             `bson:"brand,omitempty"`
	Stock       int                `bson:"stock"`
	Category    string             `bson:"category"`
	Images      []string           `bson:"images"`
	Rating      []float64          `bson:"rating"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func toDocument(p *domain.Product) productDocument {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	rating := p.Rating
	if rating == nil {
		rating = []float64{0}
	}
	return productDocument{
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Brand:       p.Brand,
		Stock:       p.Stock,
		Category:    p.Category,
		Images:      images,
		Rating:      rating,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d productDocument) toDomain() domain.Product {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	rating := d.Rating
	if rating == nil {
		rating = []float64{}
	}
	return domain.Product{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		Brand:       d.Brand,
		Stock:       d.Stock,
		Category:    d.Category,
		Images:      images,
		Rating:      rating,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) ProductRepository {
	return &mongoRepository{
		collection: db.Collection("products"),
	}
}

func (m *mongoRepository) Create(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := m.collection.InsertOne(ctx, toDocument(p))
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	p.ID = id.Hex()
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Rating == nil {
		p.Rating = []float64{0}
	}
	return nil
}

func (m *mongoRepository) Search(ctx context.Context, term string) ([]domain.Product, error) {
	filter := bson.M{}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	if term = strings.TrimSpace(term); term != "" {
		score := bson.M{"$meta": "textScore"}
		filter = bson.M{"$text": bson.M{"$search": term}}
		opts = options.Find().
			SetProjection(bson.M{"score": score}).
			SetSort(bson.D{{Key: "score", Value: score}})
	}

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]domain.Product, 0)
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration error: %w", err)
	}

	return products, nil
}

func (m *mongoRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, ErrInvalidID
	}

	var doc productDocument
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	p := doc.toDomain()
	return &p, nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
			},
			Options: options.Index().SetName("product_text"),
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// EnsureIndexes creates the collection indexes when repo is backed by MongoDB.
func EnsureIndexes(ctx context.Context, repo ProductRepository) error {
	if m, ok := repo.(*mongoRepository); ok {
		return m.CreateIndexes(ctx)
	}
	return nil
}
