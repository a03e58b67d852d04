// Package loader performs the full-replace write into the document store.
package loader

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jonesrussell/admigrate/internal/domain"
	"github.com/jonesrussell/admigrate/internal/logger"
)

// Loader writes user documents into one collection, replacing its contents.
type Loader struct {
	coll *mongo.Collection
	log  logger.Logger
}

// New creates a Loader over the given collection.
func New(coll *mongo.Collection, log logger.Logger) *Loader {
	return &Loader{coll: coll, log: log}
}

// Replace deletes every document in the collection and bulk-inserts docs.
//
// The insert is unordered: a failing document does not stop the remaining
// inserts. Per-document write errors are logged and counted, not treated as
// fatal; only connection-level failures return an error. The delete/insert
// pair is not transactional — the job is rerunnable from scratch.
func (l *Loader) Replace(ctx context.Context, docs []domain.UserDocument) (int, error) {
	if len(docs) == 0 {
		l.log.Warn("No documents to load, collection left untouched")
		return 0, nil
	}

	deleted, err := l.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("clear collection: %w", err)
	}
	l.log.Info("Cleared collection",
		logger.String("collection", l.coll.Name()),
		logger.Int64("deleted", deleted.DeletedCount),
	)

	res, err := l.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))

	var bwe mongo.BulkWriteException
	switch {
	case errors.As(err, &bwe):
		l.reportWriteErrors(bwe)
	case err != nil:
		return 0, fmt.Errorf("insert documents: %w", err)
	}

	inserted := 0
	if res != nil {
		inserted = len(res.InsertedIDs)
	}

	l.log.Info("Loaded user documents",
		logger.Int("inserted", inserted),
		logger.Int("total", len(docs)),
	)

	return inserted, nil
}

// reportWriteErrors logs each failed document of a partially failed bulk
// insert. Successfully written documents stay in place.
func (l *Loader) reportWriteErrors(bwe mongo.BulkWriteException) {
	l.log.Warn("Bulk insert partially failed",
		logger.Int("failed", len(bwe.WriteErrors)),
	)
	for _, we := range bwe.WriteErrors {
		l.log.Error("Document insert failed",
			logger.Int("index", we.Index),
			logger.Int("code", int(we.Code)),
			logger.String("message", we.Message),
		)
	}
}
