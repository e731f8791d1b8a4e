package catalogue

import (
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modhaus/modlayout/pkg/cache"
	"github.com/modhaus/modlayout/pkg/errors"
)

// Collection names used by MongoSource.
const (
	CollectionModules      = "modules"
	CollectionSectionTypes = "section_types"
	CollectionLevelTypes   = "level_types"
	CollectionWindowTypes  = "window_types"
)

// MongoConfig configures a MongoSource.
type MongoConfig struct {
	URI      string
	Database string
}

// MongoSource reads catalogue collections from MongoDB. Every document
// carries a system_id; documents are returned in ascending "order" so that
// catalogue order (and therefore matcher tie-breaking) is stable.
type MongoSource struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoSource connects to MongoDB and pings the primary.
func NewMongoSource(ctx context.Context, cfg MongoConfig) (*MongoSource, error) {
	if cfg.URI == "" || cfg.Database == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo uri and database are required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	return &MongoSource{client: client, db: client.Database(cfg.Database)}, nil
}

// Close disconnects the client.
func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type moduleDoc struct {
	ID      string  `bson:"_id"`
	DNA     string  `bson:"dna"`
	Length  float64 `bson:"length"`
	Width   float64 `bson:"width"`
	Height  float64 `bson:"height"`
	Vanilla bool    `bson:"vanilla"`
}

type sectionTypeDoc struct {
	Code        string  `bson:"code"`
	Description string  `bson:"description"`
	Width       float64 `bson:"width"`
	Height      float64 `bson:"height"`
}

type levelTypeDoc struct {
	Code        string  `bson:"code"`
	Description string  `bson:"description"`
	Height      float64 `bson:"height"`
}

type windowTypeDoc struct {
	Code        string `bson:"code"`
	Description string `bson:"description"`
	Side        string `bson:"side"`
}

// Fetch implements Source.
func (s *MongoSource) Fetch(ctx context.Context, systemID string) (*Snapshot, error) {
	if err := errors.ValidateSystemID(systemID); err != nil {
		return nil, err
	}

	var (
		modules  []moduleDoc
		sections []sectionTypeDoc
		levels   []levelTypeDoc
		windows  []windowTypeDoc
	)
	if err := s.find(ctx, CollectionModules, systemID, &modules); err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, errors.NotFound("mongo catalogue has no modules for system %q", systemID)
	}
	if err := s.find(ctx, CollectionSectionTypes, systemID, &sections); err != nil {
		return nil, err
	}
	if err := s.find(ctx, CollectionLevelTypes, systemID, &levels); err != nil {
		return nil, err
	}
	if err := s.find(ctx, CollectionWindowTypes, systemID, &windows); err != nil {
		return nil, err
	}
	return NewSnapshot(dataFromDocs(systemID, modules, sections, levels, windows))
}

func (s *MongoSource) find(ctx context.Context, collection, systemID string, out any) error {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{"system_id": systemID}, opts)
	if err != nil {
		return mongoErr(err, "query %s", collection)
	}
	if err := cur.All(ctx, out); err != nil {
		return mongoErr(err, "decode %s", collection)
	}
	return nil
}

// mongoErr marks transport failures retryable and everything else fatal.
func mongoErr(err error, format string, args ...any) error {
	wrapped := errors.Wrap(errors.ErrCodeNetwork, err, format, args...)
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || stderrors.Is(err, context.DeadlineExceeded) {
		return cache.Retryable(wrapped)
	}
	return wrapped
}

func dataFromDocs(systemID string, modules []moduleDoc, sections []sectionTypeDoc, levels []levelTypeDoc, windows []windowTypeDoc) Data {
	d := Data{
		SystemID:     systemID,
		Modules:      make([]Module, 0, len(modules)),
		SectionTypes: make([]SectionType, 0, len(sections)),
		LevelTypes:   make([]LevelType, 0, len(levels)),
		WindowTypes:  make([]WindowType, 0, len(windows)),
	}
	for _, m := range modules {
		d.Modules = append(d.Modules, Module{
			ID:      m.ID,
			DNA:     m.DNA,
			Length:  m.Length,
			Width:   m.Width,
			Height:  m.Height,
			Vanilla: m.Vanilla,
		})
	}
	for _, st := range sections {
		d.SectionTypes = append(d.SectionTypes, SectionType(st))
	}
	for _, lt := range levels {
		d.LevelTypes = append(d.LevelTypes, LevelType(lt))
	}
	for _, wt := range windows {
		d.WindowTypes = append(d.WindowTypes, WindowType{
			Code:        wt.Code,
			Description: wt.Description,
			Side:        WindowSide(wt.Side),
		})
	}
	return d
}
