package service

import (
	"fmt"
	"log"

	"godzillatours/internal/entities"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SenderService dispatches booking notifications to the operator, the
// assigned driver and the guest. Every failure here is logged and
// dropped: notifications never block or roll back a booking.
type SenderService struct {
	OperatorEmail string
	OperatorPhone string
}

func NewSenderService(operatorEmail, operatorPhone string) *SenderService {
	return &SenderService{OperatorEmail: operatorEmail, OperatorPhone: operatorPhone}
}

func (s *SenderService) BookingConfirmed(n entities.BookingNotification) {
	adminSubject := fmt.Sprintf("New booking %s - %s", n.DateDisplay, n.GuestName)
	adminBody := s.adminBody(n)

	if s.OperatorEmail != "" {
		if err := SendEmailWithSendGrid(s.OperatorEmail, "Operator", adminSubject, adminBody, ""); err != nil {
			log.Printf("Notification failure (operator email) for booking %s: %v", n.BookingID, err)
		}
	}
	if n.DriverEmail != "" {
		if err := SendEmailWithSendGrid(n.DriverEmail, "Driver", adminSubject, adminBody, ""); err != nil {
			log.Printf("Notification failure (driver email) for booking %s: %v", n.BookingID, err)
		}
	}

	guestSubject := fmt.Sprintf("Your %s booking is confirmed - %s", n.Tour, n.DateDisplay)
	if err := SendEmailWithSendGrid(n.GuestEmail, n.GuestName, guestSubject, s.guestBody(n), ""); err != nil {
		log.Printf("Notification failure (guest email) for booking %s: %v", n.BookingID, err)
	}

	if s.OperatorPhone != "" {
		sms := fmt.Sprintf("New booking: %s, %s, %d guests, %s. Deposit paid %s.",
			n.DateDisplay, n.Tour, n.PartySize, n.VehicleLabel, yen(n.Deposit))
		if err := SendSMS(s.OperatorPhone, sms); err != nil {
			log.Printf("Notification failure (operator SMS) for booking %s: %v", n.BookingID, err)
		}
	}
}

func (s *SenderService) adminBody(n entities.BookingNotification) string {
	hotel := n.Hotel
	if hotel == "" {
		hotel = "Not specified"
	}
	remarks := n.Remarks
	if remarks == "" {
		remarks = "None"
	}
	return fmt.Sprintf(`=== NEW BOOKING ===
Name: %s
Date: %s
Tour: %s
Vehicle: %s
Guests: %d
-------------------
Pickup: %s
Options: %s
Total Price: %s
Deposit: %s
Balance Due: %s (Cash)
Booking ID: %s
-------------------
CONTACT:
Email: %s
Insta: %s
WhatsApp: %s
Remarks: %s
===================`,
		n.GuestName, n.DateDisplay, n.Tour, n.VehicleLabel, n.PartySize,
		hotel, n.Options, yen(n.TotalPrice), yen(n.Deposit), yen(n.Balance),
		n.BookingID, n.GuestEmail, n.Instagram, n.Whatsapp, remarks)
}

func (s *SenderService) guestBody(n entities.BookingNotification) string {
	hotel := n.Hotel
	if hotel == "" {
		hotel = "Not specified"
	}
	return fmt.Sprintf(`Dear %s,

Thank you for booking a tour with Highway Godzilla!

=== YOUR BOOKING DETAILS ===
Tour Plan: %s
Date: %s
Vehicle: %s
Guests: %d
Pickup Location: %s
Options: %s

Total Price: %s
Deposit Paid: %s
Balance Due on the Day: %s (Cash)
Booking ID: %s

We will contact you on Instagram (%s) to arrange pickup details.
See you on the Wangan!`,
		n.GuestName, n.Tour, n.DateDisplay, n.VehicleLabel, n.PartySize,
		hotel, n.Options, yen(n.TotalPrice), yen(n.Deposit), yen(n.Balance),
		n.BookingID, n.Instagram)
}

var yenPrinter = message.NewPrinter(language.Japanese)

// yen renders an amount with grouped thousands: 130000 -> ¥130,000.
func yen(amount int) string {
	return yenPrinter.Sprintf("¥%d", amount)
}
