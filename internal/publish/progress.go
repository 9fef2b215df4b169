// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/kurso/internal/platform/apperr"
	"github.com/taibuivan/kurso/internal/platform/constants"
)

// # Job Progress

// Job is the poll-visible state of one background publish run. Clients poll
// Progress until it reaches 100, then read the terminal fields.
type Job struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	CourseID  string    `json:"courseId"`
	Mode      Mode      `json:"mode"`
	Progress  int       `json:"progress"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	ZipName   string    `json:"zipName,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// JobStore keeps job progress records and per-course build locks in redis,
// giving every API replica the same view of in-flight publishes.
type JobStore struct {
	client *redis.Client
}

// NewJobStore constructs a [JobStore].
func NewJobStore(client *redis.Client) *JobStore {
	return &JobStore{client: client}
}

func jobKey(jobID string) string {
	return constants.RedisPrefixPublishJob + jobID
}

func lockKey(tenantID, courseID string) string {
	return constants.RedisPrefixPublishLock + tenantID + ":" + courseID
}

// Save writes the job record with the standard TTL.
func (store *JobStore) Save(ctx context.Context, job *Job) error {
	job.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("publish: failed to serialize job: %w", err)
	}
	if err := store.client.Set(ctx, jobKey(job.ID), data, constants.PublishJobTTL).Err(); err != nil {
		return fmt.Errorf("publish: failed to store job: %w", err)
	}
	return nil
}

// Get returns a job record, or NotFound when it never existed or expired.
func (store *JobStore) Get(ctx context.Context, jobID string) (*Job, error) {
	data, err := store.client.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.NotFound("Publish job")
	}
	if err != nil {
		return nil, fmt.Errorf("publish: failed to load job: %w", err)
	}

	job := &Job{}
	if err := json.Unmarshal(data, job); err != nil {
		return nil, fmt.Errorf("publish: failed to decode job: %w", err)
	}
	return job, nil
}

// SetProgress advances a job's progress value.
func (store *JobStore) SetProgress(ctx context.Context, job *Job, progress int) error {
	job.Progress = progress
	return store.Save(ctx, job)
}

// Complete marks a job finished successfully and fills the download fields.
func (store *JobStore) Complete(ctx context.Context, job *Job, zipName, filename string) error {
	job.Progress = constants.ProgressDone
	job.Success = true
	job.ZipName = zipName
	job.Filename = filename
	return store.Save(ctx, job)
}

// Fail marks a job finished with an error message.
func (store *JobStore) Fail(ctx context.Context, job *Job, message string) error {
	job.Progress = constants.ProgressDone
	job.Success = false
	job.Message = message
	return store.Save(ctx, job)
}

// # Course Locks

// AcquireLock takes the per-(tenant,course) build lock. It returns false
// when another publish of the same course is already running. The lock
// carries a TTL so an abandoned run cannot wedge the course forever.
func (store *JobStore) AcquireLock(ctx context.Context, tenantID, courseID string) (bool, error) {
	acquired, err := store.client.SetNX(ctx, lockKey(tenantID, courseID), time.Now().UTC().Format(time.RFC3339), constants.PublishLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("publish: failed to acquire course lock: %w", err)
	}
	return acquired, nil
}

// ReleaseLock frees the per-(tenant,course) build lock.
func (store *JobStore) ReleaseLock(ctx context.Context, tenantID, courseID string) error {
	if err := store.client.Del(ctx, lockKey(tenantID, courseID)).Err(); err != nil {
		return fmt.Errorf("publish: failed to release course lock: %w", err)
	}
	return nil
}
