// Package storage removes stale proposal uploads from the external object
// store on behalf of the caller.
package storage

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"

	"github.com/roomly/booking-service/internal/errs"
)

type Config struct {
	URL        string `yaml:"url" envconfig:"STORAGE_URL"`
	ServiceKey string `yaml:"serviceKey" envconfig:"STORAGE_SERVICE_KEY"`
	Bucket     string `yaml:"bucket" envconfig:"STORAGE_BUCKET" default:"proposals"`
}

// stalePrefixes mark objects left behind by aborted uploads.
var stalePrefixes = []string{"failed-", "cancelled-"}

type Cleaner struct {
	client *storage_go.Client
	bucket string
	log    *zap.Logger
}

func NewCleaner(cfg Config, log *zap.Logger) *Cleaner {
	return &Cleaner{
		client: storage_go.NewClient(cfg.URL, cfg.ServiceKey, nil),
		bucket: cfg.Bucket,
		log:    log.Named("storage"),
	}
}

// Cancel removes the single in-flight object for itemID under the owner's prefix.
func (c *Cleaner) Cancel(_ context.Context, owner, itemID string) error {
	path := owner + "/" + itemID
	if _, err := c.client.RemoveFile(c.bucket, []string{path}); err != nil {
		c.log.Error("remove upload", zap.String("path", path), zap.Error(err))
		return errors.Wrap(errs.ErrUpstream, err.Error())
	}
	return nil
}

// Cleanup deletes every failed-/cancelled- object under the owner's prefix
// and reports how many were removed.
func (c *Cleaner) Cleanup(_ context.Context, owner string) (int, error) {
	files, err := c.client.ListFiles(c.bucket, owner, storage_go.FileSearchOptions{
		Limit: 100,
	})
	if err != nil {
		c.log.Error("list uploads", zap.String("owner", owner), zap.Error(err))
		return 0, errors.Wrap(errs.ErrUpstream, err.Error())
	}

	var stale []string
	for _, f := range files {
		for _, prefix := range stalePrefixes {
			if strings.HasPrefix(f.Name, prefix) {
				stale = append(stale, owner+"/"+f.Name)
				break
			}
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if _, err := c.client.RemoveFile(c.bucket, stale); err != nil {
		c.log.Error("remove uploads", zap.Int("count", len(stale)), zap.Error(err))
		return 0, errors.Wrap(errs.ErrUpstream, err.Error())
	}
	return len(stale), nil
}
