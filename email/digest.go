package email

import (
	"fmt"
	"strings"
	"time"

	"Firewatch/Models"
	"Firewatch/TaskEngine"

	"gorm.io/gorm"
)

// SendOverdueDigest emails an org's managers the list of overdue checks.
// Skips quietly when there is nothing overdue or SMTP is not configured.
func SendOverdueDigest(db *gorm.DB, orgID uint) error {
	config, err := Models.LoadEmailConfig()
	if err != nil {
		return err
	}

	var tasks []Models.CheckTask
	if err := db.Where("org_id = ?", orgID).Find(&tasks).Error; err != nil {
		return fmt.Errorf("fetching tasks for org %d: %v", orgID, err)
	}
	overdue := TaskEngine.Overdue(tasks, time.Now())
	if len(overdue) == 0 {
		return nil
	}

	var managers []Models.User
	if err := db.Where("org_id = ? AND permission >= ? AND is_approved = ?",
		orgID, Models.PermissionManager, 1).Find(&managers).Error; err != nil {
		return fmt.Errorf("fetching managers for org %d: %v", orgID, err)
	}
	if len(managers) == 0 {
		return nil
	}

	recipients := make([]string, 0, len(managers))
	for _, manager := range managers {
		recipients = append(recipients, manager.Email)
	}

	var body strings.Builder
	body.WriteString("<h2>Overdue fire safety checks</h2>")
	body.WriteString(fmt.Sprintf("<p>%d checks are past their due date:</p><ul>", len(overdue)))
	for _, task := range overdue {
		body.WriteString(fmt.Sprintf("<li>Task %d, site %d, due %s</li>",
			task.ID, task.SiteID, task.DueAt.Format("2006-01-02")))
	}
	body.WriteString("</ul>")

	message := Models.EmailMessage{
		To:      recipients,
		Subject: fmt.Sprintf("%d overdue fire safety checks", len(overdue)),
		Body:    body.String(),
		IsHTML:  true,
	}
	return SendEmail(config, message)
}
