// Package compose turns alert records into push messages. Composition is a
// pure function of the alert: no lookups, no I/O.
package compose

import (
	"fmt"
	"time"

	"inventory-alert-service/internal/models"
)

const dateLayout = "02 Jan 2006"

// Composer renders per-condition message templates. The location fixes the
// calendar date shown in expiry titles.
type Composer struct {
	loc           *time.Location
	expiryTopic   string
	lowStockTopic string
	riskTopic     string
}

func New(loc *time.Location, expiryTopic, lowStockTopic, riskTopic string) *Composer {
	return &Composer{
		loc:           loc,
		expiryTopic:   expiryTopic,
		lowStockTopic: lowStockTopic,
		riskTopic:     riskTopic,
	}
}

// Compose builds the title, body, routing data and topic for an alert.
func (c *Composer) Compose(a models.Alert) models.Message {
	var msg models.Message
	switch a.ConditionType {
	case models.ConditionExpiry:
		msg = c.expiry(a)
	case models.ConditionLowStock:
		msg = c.lowStock(a)
	case models.ConditionRisk:
		msg = c.risk(a)
	default:
		msg = models.Message{Title: "Alert", Body: a.ProductName, Topic: c.expiryTopic}
	}
	msg.Data = routingData(a)
	return msg
}

func (c *Composer) expiry(a models.Alert) models.Message {
	date := a.NotifiedAt.In(c.loc).Format(dateLayout)
	var title string
	if a.Stage == models.StageExpired {
		title = fmt.Sprintf("⚠️ EXPIRED PRODUCT (%s)", date)
	} else {
		title = fmt.Sprintf("⚠️ EXPIRY SOON (%s Days Left) (%s)", a.Stage, date)
	}
	var body string
	if a.Stage == models.StageExpired {
		body = fmt.Sprintf("URGENT: %s (Batch %s, %s) has expired.", a.ProductName, a.BatchNumber, a.SubCategory)
	} else {
		body = fmt.Sprintf("%s (Batch %s, %s) expires in %s days.", a.ProductName, a.BatchNumber, a.SubCategory, a.Stage)
	}
	return models.Message{Title: title, Body: body, Topic: c.expiryTopic}
}

func (c *Composer) lowStock(a models.Alert) models.Message {
	return models.Message{
		Title: fmt.Sprintf("📦 LOW STOCK (%d left)", a.CurrentStock),
		Body: fmt.Sprintf("%s is down to %d units (reorder level %d).",
			a.ProductName, a.CurrentStock, a.ReorderLevel),
		Topic: c.lowStockTopic,
	}
}

func (c *Composer) risk(a models.Alert) models.Message {
	emoji := "⚠️"
	if a.Stage == models.RiskHigh {
		emoji = "🚨"
	}
	return models.Message{
		Title: fmt.Sprintf("%s RISK ALERT (%.0f)", emoji, a.RiskScore),
		Body:  fmt.Sprintf("%s has a %s risk score of %.0f out of 100.", a.ProductName, a.Stage, a.RiskScore),
		Topic: c.riskTopic,
	}
}

// routingData lets a client deep-link straight from the notification without a
// second lookup. click_action is what the mobile client dispatches on.
func routingData(a models.Alert) map[string]string {
	return map[string]string{
		"alertId":       a.ID,
		"subjectId":     a.SubjectID,
		"productId":     a.ProductID,
		"conditionType": string(a.ConditionType),
		"stage":         a.Stage,
		"click_action":  "FLUTTER_NOTIFICATION_CLICK",
	}
}
