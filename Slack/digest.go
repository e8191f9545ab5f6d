package Slack

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"Firewatch/Models"
	"Firewatch/TaskEngine"

	"github.com/joho/godotenv"
	"github.com/slack-go/slack"
	"gorm.io/gorm"
)

func client() (*slack.Client, string, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, relying on environment")
	}
	token := os.Getenv("SLACK_BOT_TOKEN")
	channel := os.Getenv("SLACK_COMPLIANCE_CHANNEL")
	if token == "" || channel == "" {
		return nil, "", fmt.Errorf("slack not configured (SLACK_BOT_TOKEN / SLACK_COMPLIANCE_CHANNEL)")
	}
	return slack.New(token), channel, nil
}

// SendComplianceDigest posts the daily compliance summary for one
// organization to the configured Slack channel.
func SendComplianceDigest(db *gorm.DB, orgID uint) error {
	api, channel, err := client()
	if err != nil {
		return err
	}

	var tasks []Models.CheckTask
	if err := db.Where("org_id = ?", orgID).Find(&tasks).Error; err != nil {
		return fmt.Errorf("fetching tasks for org %d: %v", orgID, err)
	}
	var openDefects int64
	db.Model(&Models.Defect{}).Where("org_id = ? AND status != ?", orgID, Models.DefectResolved).Count(&openDefects)

	now := time.Now()
	summary := TaskEngine.Summarize(tasks, now, 0, 7)

	var message strings.Builder
	message.WriteString(fmt.Sprintf("*Daily Compliance Digest, %s*\n", now.Format("January 2, 2006")))
	message.WriteString(fmt.Sprintf("Due today: %d\n", summary.DueToday))
	message.WriteString(fmt.Sprintf("Overdue: %d\n", summary.Overdue))
	message.WriteString(fmt.Sprintf("Upcoming (7 days): %d\n", summary.Upcoming))
	message.WriteString(fmt.Sprintf("Open defects: %d\n", openDefects))

	overdue := TaskEngine.Overdue(tasks, now)
	if len(overdue) > 0 {
		message.WriteString("\n*Overdue checks:*\n")
		for i, task := range overdue {
			if i == 10 {
				message.WriteString(fmt.Sprintf("...and %d more\n", len(overdue)-10))
				break
			}
			message.WriteString(fmt.Sprintf("• Task %d, due %s\n", task.ID, task.DueAt.Format("2006-01-02")))
		}
	}

	_, _, err = api.PostMessage(channel,
		slack.MsgOptionText(message.String(), false),
	)
	if err != nil {
		return fmt.Errorf("posting digest: %v", err)
	}
	return nil
}

// EscalateDefect posts a critical defect to the compliance channel so it is
// seen before the next digest.
func EscalateDefect(db *gorm.DB, defect Models.Defect, raisedByName string) error {
	api, channel, err := client()
	if err != nil {
		return err
	}

	var site Models.Site
	siteName := fmt.Sprintf("site %d", defect.SiteID)
	if err := db.First(&site, defect.SiteID).Error; err == nil {
		siteName = site.Name
	}

	text := fmt.Sprintf(":rotating_light: *Critical defect raised*\n*%s* at %s\n%s\nRaised by %s",
		defect.Title, siteName, defect.Description, raisedByName)

	_, _, err = api.PostMessage(channel,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return fmt.Errorf("posting escalation: %v", err)
	}
	return nil
}
