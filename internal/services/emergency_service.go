package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gofleet/internal/apperrors"
	"gofleet/internal/models"
	"gofleet/internal/observability"
	"gofleet/internal/repositories/interfaces"
	"gofleet/pkg/logger"
	"gofleet/pkg/sms"
	"gofleet/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmergencyService handles in-trip SOS escalation. Activation records the
// event on the trip, alerts the operations channel and texts the requester's
// contacts; the trip itself keeps running.
type EmergencyService interface {
	ActivateSOS(ctx context.Context, tripID, actorID primitive.ObjectID, lat, lng float64) (models.TripCore, error)
}

type emergencyService struct {
	tripRepo      interfaces.TripRepository
	requesterRepo interfaces.RequesterRepository
	presence      Presence
	smsProvider   sms.SMSProvider
	log           *logger.Logger
}

func NewEmergencyService(
	tripRepo interfaces.TripRepository,
	requesterRepo interfaces.RequesterRepository,
	presence Presence,
	smsProvider sms.SMSProvider,
	log *logger.Logger,
) EmergencyService {
	return &emergencyService{
		tripRepo:      tripRepo,
		requesterRepo: requesterRepo,
		presence:      presence,
		smsProvider:   smsProvider,
		log:           log,
	}
}

func (s *emergencyService) ActivateSOS(ctx context.Context, tripID, actorID primitive.ObjectID, lat, lng float64) (models.TripCore, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperrors.NotFound("trip", tripID.Hex())
		}
		return nil, err
	}
	base := trip.Base()
	if !base.IsParticipant(actorID) {
		return nil, apperrors.Permission("only trip participants may raise an SOS")
	}
	if base.SOS != nil {
		// Already active; repeating the alarm changes nothing.
		return trip, nil
	}
	if models.IsTerminalStatus(base.Status) {
		return nil, apperrors.Conflict("trip already finished", base.Status, workerHex(base))
	}

	contacts := s.contactList(ctx, base.RequesterID)

	now := time.Now()
	record := &models.SOSRecord{
		Activated:   true,
		ActivatedBy: actorID,
		ActivatedAt: now,
		Location:    models.NewLocation(lat, lng),
	}
	for _, c := range contacts {
		record.NotifiedContacts = append(record.NotifiedContacts, models.NotifiedContact{
			Name:       c.name,
			Phone:      c.phone,
			NotifiedAt: now,
		})
	}

	updated, err := s.tripRepo.ActivateSOS(ctx, tripID, record)
	if err != nil {
		if !errors.Is(err, interfaces.ErrConditionFailed) {
			return nil, err
		}
		current, gerr := s.tripRepo.GetByID(ctx, tripID)
		if gerr != nil {
			return nil, gerr
		}
		if current.Base().SOS != nil {
			return current, nil
		}
		return nil, apperrors.Conflict("trip already finished", current.Base().Status, workerHex(current.Base()))
	}

	observability.SOSActivations.Inc()
	s.log.WithTripID(tripID).WithFields(map[string]interface{}{
		"activated_by": actorID.Hex(),
		"contacts":     len(contacts),
	}).Warn("sos activated")

	payload := map[string]interface{}{
		"trip":         TripPayload(updated),
		"activated_by": actorID.Hex(),
		"location":     record.Location,
	}
	s.presence.Emit(websocket.ChannelOperations, EventSOSActivated, payload)
	s.presence.Emit(websocket.TripChannel(tripID), EventSOSActivated, payload)

	s.notifyContacts(ctx, updated, contacts, lat, lng)
	return updated, nil
}

type sosContact struct {
	name  string
	phone string
}

// contactList merges emergency contacts with trusted contacts that opted
// into trip tracking. A failed requester lookup yields an empty list rather
// than blocking the escalation.
func (s *emergencyService) contactList(ctx context.Context, requesterID primitive.ObjectID) []sosContact {
	requester, err := s.requesterRepo.GetByID(ctx, requesterID)
	if err != nil {
		s.log.WithError(err).Warn("sos contact lookup failed")
		return nil
	}
	var contacts []sosContact
	for _, c := range requester.EmergencyContacts {
		contacts = append(contacts, sosContact{name: c.Name, phone: c.Phone})
	}
	for _, c := range requester.TrustedContacts {
		if c.CanTrackTrips {
			contacts = append(contacts, sosContact{name: c.Name, phone: c.Phone})
		}
	}
	return contacts
}

func (s *emergencyService) notifyContacts(ctx context.Context, trip models.TripCore, contacts []sosContact, lat, lng float64) {
	if s.smsProvider == nil || len(contacts) == 0 {
		return
	}
	base := trip.Base()
	message := fmt.Sprintf(
		"EMERGENCY: an SOS was raised on trip %s. Last known position: https://maps.google.com/?q=%f,%f",
		base.TripNumber, lat, lng,
	)
	for _, c := range contacts {
		_, err := s.smsProvider.SendSMS(ctx, &sms.SMSRequest{
			To:      c.phone,
			Message: message,
			Type:    "emergency",
		})
		if err != nil {
			s.log.LogNotifyFailure(c.phone, EventSOSActivated, err)
		}
	}
}
