package job

import (
	"github.com/askboard/askboard/database/model"
	"github.com/askboard/askboard/logger"
	"github.com/askboard/askboard/web/middleware"

	"github.com/shirou/gopsutil/v4/mem"
	"gorm.io/gorm"
)

// Stats is one StatsJob sample.
type Stats struct {
	Users      int64
	Classrooms int64
	Questions  int64
	Votes      int64
	Requests   int64
	MemPercent float64 // host memory in use, 0 when unavailable
}

// StatsJob logs how many rows each board table holds.
type StatsJob struct {
	db *gorm.DB
}

func NewStatsJob(db *gorm.DB) *StatsJob {
	return &StatsJob{db: db}
}

func (j *StatsJob) Collect() (*Stats, error) {
	stats := &Stats{Requests: middleware.RequestCount()}
	counts := []struct {
		model any
		dst   *int64
	}{
		{&model.User{}, &stats.Users},
		{&model.Classroom{}, &stats.Classrooms},
		{&model.Question{}, &stats.Questions},
		{&model.Vote{}, &stats.Votes},
	}
	for _, c := range counts {
		if err := j.db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	if memInfo, err := mem.VirtualMemory(); err != nil {
		logger.Debug("get virtual memory failed:", err)
	} else {
		stats.MemPercent = memInfo.UsedPercent
	}
	return stats, nil
}

func (j *StatsJob) Run() {
	defer recoverJob("stats")

	stats, err := j.Collect()
	if err != nil {
		logger.Warning("Collect stats failed:", err)
		return
	}
	logger.Infof("users: %d, classrooms: %d, questions: %d, votes: %d, requests served: %d, memory: %.1f%%",
		stats.Users, stats.Classrooms, stats.Questions, stats.Votes, stats.Requests, stats.MemPercent)
}
