package Notifications

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"Firewatch/Models"
	"Firewatch/TaskEngine"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// Global Firebase messaging client
var firebaseClient *messaging.Client
var ctx = context.Background()

// InitFirebase sets up the Cloud Messaging client. Call once at startup.
func InitFirebase() error {
	credentials := os.Getenv("FIREBASE_CREDENTIALS")
	if credentials == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS not set")
	}
	opt := option.WithCredentialsFile(credentials)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing Firebase app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting Messaging client: %v", err)
	}

	firebaseClient = client
	log.Println("Firebase initialized successfully")
	return nil
}

// SendDueTaskReminders pushes a reminder to every registered device of an
// org's users when checks are due today or overdue.
func SendDueTaskReminders(db *gorm.DB, orgID uint) error {
	var tasks []Models.CheckTask
	if err := db.Where("org_id = ?", orgID).Find(&tasks).Error; err != nil {
		return fmt.Errorf("fetching tasks: %v", err)
	}

	now := time.Now()
	dueToday := TaskEngine.DueToday(tasks, now)
	overdue := TaskEngine.Overdue(tasks, now)
	if len(dueToday) == 0 && len(overdue) == 0 {
		return nil
	}

	var users []Models.User
	if err := db.Where("org_id = ? AND is_approved = ?", orgID, 1).Find(&users).Error; err != nil {
		return fmt.Errorf("fetching users: %v", err)
	}
	userIDs := make([]uint, 0, len(users))
	for _, user := range users {
		userIDs = append(userIDs, user.ID)
	}

	tokens, err := Models.TokensForUsers(userIDs)
	if err != nil {
		return fmt.Errorf("fetching device tokens: %v", err)
	}

	body := fmt.Sprintf("%d checks due today", len(dueToday))
	if len(overdue) > 0 {
		body = fmt.Sprintf("%d checks due today, %d overdue", len(dueToday), len(overdue))
	}

	for _, token := range tokens {
		if err := sendReminder(token.Value, len(dueToday), len(overdue), body); err != nil {
			log.Printf("Error sending reminder to token %d: %v", token.ID, err)
		}
	}
	return nil
}

func sendReminder(token string, dueToday, overdue int, body string) error {
	if firebaseClient == nil {
		return fmt.Errorf("firebase client not initialized - call InitFirebase() first")
	}

	message := &messaging.Message{
		Token: token,
		Data: map[string]string{
			"due_today": strconv.Itoa(dueToday),
			"overdue":   strconv.Itoa(overdue),
		},
		Notification: &messaging.Notification{
			Title: "Inspection checks due",
			Body:  body,
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Icon:  "check_reminder_icon",
				Sound: "default",
			},
			Priority: "high",
		},
	}

	response, err := firebaseClient.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending Firebase message: %v", err)
	}
	log.Printf("Sent reminder notification: %s", response)
	return nil
}
