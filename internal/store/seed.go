package store

import (
	"time"

	"github.com/psds-microservice/work-buddy/internal/model"
)

type Seed struct {
	Users    []model.User
	Requests []model.Request
}

// DemoSeed is the demonstration data every process starts from. Times are
// relative to now.
func DemoSeed(now time.Time) Seed {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	users := []model.User{
		{ID: "1", Email: "john.doe@email.com", Name: "John Doe", Route: "USA → India", LastActive: ago(time.Hour)},
		{ID: "2", Email: "maria.garcia@email.com", Name: "Maria Garcia", Route: "Canada → Mexico", LastActive: ago(2 * time.Hour)},
		{ID: "3", Email: "ahmed.hassan@email.com", Name: "Ahmed Hassan", Route: "UK → Egypt", LastActive: ago(24 * time.Hour)},
	}
	requests := []model.Request{
		{
			ID:          "1",
			UserID:      "1",
			Title:       "Tax Payment Assistance",
			Description: "Need help with home country tax payment for my family",
			Status:      model.RequestStatusInProgress,
			Priority:    model.PriorityHigh,
			CreatedAt:   ago(24 * time.Hour),
			Messages: []model.Message{
				{ID: "1", Text: "Hello! I need help with tax payment for my family back home. The deadline is approaching.", Sender: model.RoleUser, Timestamp: ago(24 * time.Hour), Status: model.DeliveryRead},
				{ID: "2", Text: "Hi! I understand you need assistance with tax payments. I'll help you with the process. Can you provide more details about the tax type and amount?", Sender: model.RoleAdmin, Timestamp: ago(23 * time.Hour), Status: model.DeliveryRead},
				{ID: "3", Text: "It's property tax for my parents' house. The amount is $2,500 and due next week.", Sender: model.RoleUser, Timestamp: ago(82400 * time.Second), Status: model.DeliveryRead},
			},
		},
		{
			ID:          "2",
			UserID:      "1",
			Title:       "Medical Bill Payment",
			Description: "Emergency medical payment needed for my mother",
			Status:      model.RequestStatusCompleted,
			Priority:    model.PriorityHigh,
			CreatedAt:   ago(48 * time.Hour),
			Messages: []model.Message{
				{ID: "4", Text: "My mother had an emergency surgery. I need to send money urgently for medical bills.", Sender: model.RoleUser, Timestamp: ago(48 * time.Hour), Status: model.DeliveryRead},
				{ID: "5", Text: "I've processed the medical payment. The transaction has been completed successfully.", Sender: model.RoleAdmin, Timestamp: ago(47 * time.Hour), Status: model.DeliveryRead},
			},
		},
		{
			ID:          "3",
			UserID:      "2",
			Title:       "University Fee Payment",
			Description: "Need to pay university fees for my sister",
			Status:      model.RequestStatusPending,
			Priority:    model.PriorityMedium,
			CreatedAt:   ago(12 * time.Hour),
			Messages: []model.Message{
				{ID: "6", Text: "Hi, I need to pay university fees for my sister. The amount is $3,000 and the deadline is in 2 days.", Sender: model.RoleUser, Timestamp: ago(12 * time.Hour), Status: model.DeliveryDelivered},
			},
		},
	}
	return Seed{Users: users, Requests: requests}
}
