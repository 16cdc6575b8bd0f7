// Package job holds the cron jobs scheduled by the web server.
package job

import (
	"github.com/askboard/askboard/database"
	"github.com/askboard/askboard/logger"

	"gorm.io/gorm"
)

// CheckpointDBJob folds the sqlite write-ahead log back into the main file.
type CheckpointDBJob struct {
	db *gorm.DB
}

// recoverJob keeps a panicking job from taking the cron scheduler down.
func recoverJob(name string) {
	if r := recover(); r != nil {
		logger.Errorf("%s job panicked: %v", name, r)
	}
}

func NewCheckpointDBJob(db *gorm.DB) *CheckpointDBJob {
	return &CheckpointDBJob{db: db}
}

func (j *CheckpointDBJob) Run() {
	defer recoverJob("checkpoint db")

	if err := database.Checkpoint(j.db); err != nil {
		logger.Warning("Database checkpoint failed:", err)
		return
	}
	logger.Debug("Database checkpoint completed")
}
