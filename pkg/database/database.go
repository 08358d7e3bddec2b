package database

import (
	"fmt"
	"log"

	"github.com/forhay123/haybee-edu-sub014/internal/config"
	"github.com/forhay123/haybee-edu-sub014/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")
	return db, nil
}

// Migrate 建表，测试里对 SQLite 复用同一份迁移
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Term{},
		&model.PublicHoliday{},
		&model.StudentProfile{},
		&model.Subject{},
		&model.LessonTopic{},
		&model.Enrollment{},
		&model.TimetableEntry{},
		&model.ScheduleEntry{},
		&model.ArchivedScheduleEntry{},
		&model.ProgressRecord{},
		&model.ArchivedProgressRecord{},
		&model.Assessment{},
		&model.QuestionBankItem{},
		&model.AssessmentQuestion{},
		&model.AssessmentSubmission{},
		&model.AssessmentAnswer{},
		&model.WindowReschedule{},
		&model.ScheduleConflict{},
		&model.NotificationEvent{},
	)
}
