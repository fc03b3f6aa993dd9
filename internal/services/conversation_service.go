package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/repositories"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"
)

// BookingNotifier receives confirmed reservations. Implementations must not
// block on delivery and must swallow delivery errors.
type BookingNotifier interface {
	SendBookingConfirmation(rec models.Reservation)
}

// ConversationService is the per-sender state machine. It maps an inbound
// event and the sender's session to a reply plus ledger side effects.
type ConversationService struct {
	Catalog  *repositories.RouteCatalog
	Ledger   *repositories.LedgerRepository
	Sessions SessionRegistry
	Proofs   repositories.ProofStore
	Notifier BookingNotifier
	Replies  Replies
	Now      func() time.Time

	locks senderLocks
}

func (s *ConversationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Handle processes one event to completion and returns the reply text. An
// empty reply means nothing should be sent. A PersistenceError is returned
// together with the generic retry reply; the session is then left in the
// state it had before the failed write.
func (s *ConversationService) Handle(ctx context.Context, ev models.InboundEvent) (string, error) {
	if ev.IsGroup || strings.TrimSpace(ev.SenderID) == "" {
		return "", nil
	}
	if strings.TrimSpace(ev.Text) == "" && ev.Media == nil {
		return "", nil
	}

	unlock := s.locks.lock(ev.SenderID)
	defer unlock()

	sess := s.Sessions.GetOrCreate(ev.SenderID)
	reply, err := s.dispatch(ctx, &sess, ev)
	s.Sessions.Save(sess)
	if err != nil {
		utils.LogSenderError(ctx, ev.SenderID, "conversation", string(sess.State), err)
	}
	return reply, err
}

func (s *ConversationService) dispatch(ctx context.Context, sess *models.Session, ev models.InboundEvent) (string, error) {
	text := strings.TrimSpace(ev.Text)

	if ev.Media != nil {
		if sess.State == models.StateAwaitingPayment {
			return s.confirmPayment(ctx, sess, ev.Media)
		}
		return s.Replies.MediaOutsidePayment(), nil
	}

	if sess.State != models.StateMenu && isCancel(text) {
		sess.Reset()
		return s.Replies.Cancelled(), nil
	}

	if sess.State.Collecting() {
		return s.bookingStep(ctx, sess, text)
	}

	intent, _ := Classify(text)
	switch intent {
	case models.IntentGreeting:
		return s.Replies.Menu(), nil
	case models.IntentQueryFares:
		return s.Replies.Fares(s.Catalog.ListRoutes()), nil
	case models.IntentQueryHours:
		return s.Replies.Schedule(s.Catalog.ListRoutes()), nil
	case models.IntentStartBooking:
		if sess.State == models.StateAwaitingPayment {
			return s.Replies.PendingExists(), nil
		}
		sess.State = models.StateCollectingName
		sess.Draft = models.Draft{}
		return s.Replies.AskName(), nil
	case models.IntentQueryServices:
		return s.Replies.Services(), nil
	case models.IntentQueryContact:
		return s.Replies.Contact(), nil
	case models.IntentFarewell:
		return s.Replies.Farewell(), nil
	case models.IntentConfirmPayment:
		if sess.State == models.StateAwaitingPayment {
			return s.Replies.AskProof(), nil
		}
		return s.confirmPayment(ctx, sess, nil)
	default:
		return s.Replies.NotUnderstood(), nil
	}
}

func (s *ConversationService) bookingStep(ctx context.Context, sess *models.Session, text string) (string, error) {
	switch sess.State {
	case models.StateCollectingName:
		name := utils.NormalizeSpace(text)
		if name == "" {
			return s.Replies.AskName(), nil
		}
		sess.Draft.Name = name
		sess.State = models.StateCollectingDocument
		return s.Replies.AskDocument(), nil

	case models.StateCollectingDocument:
		doc := utils.DigitsOnly(text)
		if len(doc) < 6 || len(doc) > 12 {
			return s.Replies.InvalidDocument(), nil
		}
		sess.Draft.DocumentID = doc
		sess.State = models.StateSelectingRoute
		return s.Replies.AskRoute(s.Catalog.ListRoutes()), nil

	case models.StateSelectingRoute:
		routes := s.Catalog.ListRoutes()
		i, ok := pickIndex(text, len(routes))
		if !ok {
			return s.Replies.InvalidRoute(routes), nil
		}
		sess.Draft.RouteKey = routes[i].Key
		sess.State = models.StateSelectingTime
		return s.Replies.AskTime(routes[i]), nil

	case models.StateSelectingTime:
		return s.completeBooking(ctx, sess, text)
	}
	return s.Replies.Menu(), nil
}

// completeBooking appends the pending row. The session advances only after
// the ledger write succeeded. A document keeps at most one pending row: when
// one exists the session is pointed back at it and nothing is appended.
func (s *ConversationService) completeBooking(ctx context.Context, sess *models.Session, text string) (string, error) {
	route, err := s.Catalog.GetRoute(sess.Draft.RouteKey)
	if err != nil {
		sess.Draft.RouteKey = ""
		sess.State = models.StateSelectingRoute
		return s.Replies.InvalidRoute(s.Catalog.ListRoutes()), nil
	}
	i, ok := pickIndex(text, len(route.DepartureTimes))
	if !ok {
		return s.Replies.InvalidTime(route), nil
	}

	draft := sess.Draft
	draft.DepartureTime = route.DepartureTimes[i]
	draft.Fare = route.Fare

	rec, err := models.NewReservation(draft, route, sess.SenderID, s.now())
	if err != nil {
		if domain.IsValidation(err) {
			utils.LogSenderError(ctx, sess.SenderID, "booking", "validate", err)
			return s.Replies.InvalidTime(route), nil
		}
		return s.Replies.Retry(), err
	}
	existing, appended, err := s.Ledger.AppendUnless(ctx, rec, func(r models.Reservation) bool {
		return r.DocumentID == draft.DocumentID && r.Status == models.StatusPendingPayment
	})
	if err != nil {
		return s.Replies.Retry(), err
	}
	if !appended {
		sess.Draft = models.Draft{
			RouteKey:      existing.Route,
			Name:          existing.Name,
			DocumentID:    existing.DocumentID,
			DepartureTime: existing.DepartureTime,
			Fare:          existing.Fare,
		}
		sess.State = models.StateAwaitingPayment
		utils.LogSenderEvent(ctx, sess.SenderID, "booking", "pending_exists", "reservation="+existing.ID)
		return s.Replies.PendingExists(), nil
	}

	sess.Draft = draft
	sess.State = models.StateAwaitingPayment
	utils.LogSenderEvent(ctx, sess.SenderID, "booking", "append", "reservation="+rec.ID+" route="+rec.Route)
	return s.Replies.Booked(rec), nil
}

// confirmPayment marks the newest pending row of the draft's document as
// paid. media, when present, is stored as the payment proof first.
func (s *ConversationService) confirmPayment(ctx context.Context, sess *models.Session, media *models.Media) (string, error) {
	doc := sess.Draft.DocumentID
	if doc == "" {
		return s.Replies.NoPendingReservation(), nil
	}
	isPending := func(r models.Reservation) bool {
		return r.DocumentID == doc && r.Status == models.StatusPendingPayment
	}

	records, err := s.Ledger.LoadAll(ctx)
	if err != nil {
		return s.Replies.Retry(), err
	}
	var target *models.Reservation
	for i := len(records) - 1; i >= 0; i-- {
		if isPending(records[i]) {
			target = &records[i]
			break
		}
	}
	if target == nil {
		return s.Replies.NoPendingReservation(), nil
	}

	proofRef := ""
	if media != nil && s.Proofs != nil {
		ref, err := s.Proofs.StoreProof(ctx, media.Data, media.MimeType, doc, target.Route)
		if err != nil {
			utils.LogSenderError(ctx, sess.SenderID, "payment", "store_proof", err)
		} else {
			proofRef = ref
		}
	}

	now := s.now()
	rec, found, err := s.Ledger.UpdateLatest(ctx, isPending, func(r *models.Reservation) error {
		return r.Confirm(now, proofRef)
	})
	if err != nil {
		return s.Replies.Retry(), err
	}
	if !found {
		return s.Replies.NoPendingReservation(), nil
	}

	utils.LogSenderEvent(ctx, sess.SenderID, "payment", "confirm", "reservation="+rec.ID)
	if s.Notifier != nil {
		s.Notifier.SendBookingConfirmation(rec)
	}
	sess.Reset()
	return s.Replies.PaymentConfirmed(rec), nil
}

// pickIndex parses a 1-based menu choice into a 0-based index.
func pickIndex(text string, n int) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || v < 1 || v > n {
		return 0, false
	}
	return v - 1, true
}
