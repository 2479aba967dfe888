package service

import (
	"testing"

	"godzillatours/internal/entities"

	"github.com/stretchr/testify/assert"
)

func TestYenGroupsThousands(t *testing.T) {
	assert.Equal(t, "¥0", yen(0))
	assert.Equal(t, "¥500", yen(500))
	assert.Equal(t, "¥5,000", yen(5000))
	assert.Equal(t, "¥65,000", yen(65000))
	assert.Equal(t, "¥130,000", yen(130000))
}

func TestAdminBodyIncludesPricing(t *testing.T) {
	s := NewSenderService("ops@example.com", "")
	body := s.adminBody(entities.BookingNotification{
		BookingID:    "bk_1",
		GuestName:    "Taro",
		DateDisplay:  "2025-02-14",
		Tour:         "Daikoku Tour",
		VehicleLabel: "R34 Blue",
		PartySize:    2,
		Options:      "Tokyo Tower, Shibuya",
		TotalPrice:   75000,
		Deposit:      5000,
		Balance:      70000,
		GuestEmail:   "taro@example.com",
	})

	assert.Contains(t, body, "Options: Tokyo Tower, Shibuya")
	assert.Contains(t, body, "Total Price: ¥75,000")
	assert.Contains(t, body, "Deposit: ¥5,000")
	assert.Contains(t, body, "Balance Due: ¥70,000 (Cash)")
	assert.Contains(t, body, "Pickup: Not specified")
}
