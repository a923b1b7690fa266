package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/briefdhq/briefd/config"
	"github.com/briefdhq/briefd/internal/brief"
	"github.com/briefdhq/briefd/internal/store"
	"github.com/briefdhq/briefd/models"
)

// Scheduler generates briefs for configured recipients on their cron
// schedules. A redis lock keeps multiple instances from generating the same
// brief twice.
type Scheduler struct {
	Assembler *brief.Assembler
	Store     *store.Store
	Rdb       *redis.Client
	Config    config.SchedulerConfig
	Defaults  config.BriefConfig
	Stop      chan struct{}
	Logger    *log.Logger
}

func (s *Scheduler) Start() {
	interval := s.Config.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	if s.Logger == nil {
		s.Logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	}
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	for _, r := range s.Config.Recipients {
		last, err := s.Store.LatestBriefTime(ctx, r.UserID, r.BriefType)
		if err != nil {
			s.Logger.Printf("latest brief time for %s: %v", r.UserID, err)
			continue
		}
		if !isDue(r.CronSpec, last) {
			continue
		}

		// distributed lock to avoid duplicate generations
		if s.Rdb != nil {
			lockKey := "sched:lock:" + r.UserID + ":" + r.BriefType
			ok, _ := s.Rdb.SetNX(ctx, lockKey, "1", 2*time.Minute).Result()
			if !ok {
				continue
			}
		}

		go func(r config.RecipientSchedule) {
			// jitter to avoid stampedes
			time.Sleep(time.Duration(250+int64(time.Now().UnixNano()%250)) * time.Millisecond)
			cfg := models.BriefConfig{
				UserID:             r.UserID,
				OrgID:              r.OrgID,
				BriefType:          r.BriefType,
				MaxItemsPerSection: s.Defaults.MaxItemsPerSection,
				PriorityThreshold:  s.Defaults.PriorityThreshold,
				TimeRangeHours:     s.Defaults.TimeRangeHours,
			}
			if _, err := s.Assembler.Generate(ctx, cfg); err != nil {
				s.Logger.Printf("scheduled brief for %s failed: %v", r.UserID, err)
				return
			}
			s.Logger.Printf("scheduled %s brief generated for %s", r.BriefType, r.UserID)
		}(r)
	}
}

// isDue determines if a recipient with cronSpec should get a brief now based
// on the last generation time. Supports "@daily", "@hourly", and standard
// 5-field cron expressions.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			// Fallback: treat as @daily if invalid
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
