package services

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/utils"
)

// Mailer and Pusher are the outbound notification collaborators. Both
// are best-effort: a failure is logged and never rolls back the
// operation that triggered it.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type Pusher interface {
	SendPush(userID uint, title, message string, data map[string]interface{}) error
}

// LogMailer and LogPusher are the default implementations used until a
// real provider is configured. They just log the payload.
type LogMailer struct{}

func (LogMailer) SendEmail(to, subject, body string) error {
	utils.InfoLogger.Printf("email to %s: %s - %s", to, subject, body)
	return nil
}

type LogPusher struct{}

func (LogPusher) SendPush(userID uint, title, message string, data map[string]interface{}) error {
	utils.InfoLogger.Printf("push to user %d: %s - %s", userID, title, message)
	return nil
}

type NotificationService struct {
	db     *gorm.DB
	mailer Mailer
	pusher Pusher
}

func NewNotificationService(db *gorm.DB, mailer Mailer, pusher Pusher) *NotificationService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	if pusher == nil {
		pusher = LogPusher{}
	}
	return &NotificationService{db: db, mailer: mailer, pusher: pusher}
}

// Notify sends email + push to the user and persists a notification row.
// Errors are swallowed after logging.
func (s *NotificationService) Notify(user *models.User, title, message string, data map[string]interface{}) {
	if user == nil {
		return
	}

	if err := s.mailer.SendEmail(user.Email, title, message); err != nil {
		utils.ErrorLogger.Printf("email to user %d failed: %v", user.ID, err)
	}
	if err := s.pusher.SendPush(user.ID, title, message, data); err != nil {
		utils.ErrorLogger.Printf("push to user %d failed: %v", user.ID, err)
	}

	var payload []byte
	if data != nil {
		payload, _ = json.Marshal(data)
	}
	notif := models.Notification{
		UserID:    &user.ID,
		Title:     &title,
		Message:   message,
		Data:      payload,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("saving notification for user %d failed: %v", user.ID, err)
	}
}

// NotifyUserID looks the user up first; missing users are logged and skipped.
func (s *NotificationService) NotifyUserID(userID uint, title, message string, data map[string]interface{}) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		utils.ErrorLogger.Printf("notification target user %d not found: %v", userID, err)
		return
	}
	s.Notify(&user, title, message, data)
}
