package source

import (
	"context"
	"testing"
)

func TestBucketAdapterValidateRequiresBucketName(t *testing.T) {
	a := NewBucketAdapter()
	if a.Validate(Config{}) {
		t.Error("empty config should not validate")
	}
	if !a.Validate(Config{BucketName: "docs"}) {
		t.Error("BucketName set should validate")
	}
}

func TestDriveAdapterReturnsNotConfiguredWithoutFolderID(t *testing.T) {
	a := NewDriveAdapter()
	if a.Validate(Config{}) {
		t.Error("empty config should not validate")
	}
	if _, err := a.Discover(context.Background(), Config{}, 10); err == nil {
		t.Error("expected not-configured error from Discover")
	}
	if _, err := a.Fetch(context.Background(), "anything"); err == nil {
		t.Error("expected not-configured error from Fetch")
	}
}

func TestRegistryResolvesKnownAdapters(t *testing.T) {
	reg := NewRegistry("/tmp/inbox")
	if reg.Resolve(NameFolder) == nil {
		t.Error("expected folder adapter to resolve")
	}
	if reg.Resolve(NameS3) == nil {
		t.Error("expected s3 adapter to resolve")
	}
	if reg.Resolve("unknown") != nil {
		t.Error("expected unknown adapter name to resolve to nil")
	}
}
