package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"balans/wellbeing-app/internal/adaptation"
	"balans/wellbeing-app/internal/domain"
	"balans/wellbeing-app/internal/fsm"
	"balans/wellbeing-app/internal/repository"
	"balans/wellbeing-app/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrNoAdaptablePlan = errors.New("no active or paused plan to adapt")
	ErrNothingToUndo   = errors.New("no reversible adaptation to undo")
)

// AdaptationRequest carries one intent plus its parameters. Unused fields
// stay zero.
type AdaptationRequest struct {
	Intent       domain.AdaptationIntent
	SlotToRemove domain.TimeSlot
	SlotToAdd    domain.TimeSlot
	TargetDays   int
	NewFocus     domain.Focus
}

// AdaptationOutcome reports an applied adaptation back to the caller.
type AdaptationOutcome struct {
	Intent    domain.AdaptationIntent
	Plan      *domain.Plan
	NewPlan   *domain.Plan
	Diff      domain.VersionDiff
	AppliedAt time.Time
}

// AdaptationService gates, applies and records plan adaptations.
type AdaptationService interface {
	Apply(ctx context.Context, userID primitive.ObjectID, req AdaptationRequest) (*AdaptationOutcome, error)
	Undo(ctx context.Context, userID primitive.ObjectID) (*AdaptationOutcome, error)
	History(ctx context.Context, userID primitive.ObjectID) ([]domain.AdaptationHistory, error)
	Analytics(ctx context.Context, planID primitive.ObjectID) (*AdaptationAnalytics, error)
}

type adaptationService struct {
	userRepo    repository.UserRepository
	planRepo    repository.PlanRepository
	versionRepo repository.PlanVersionRepository
	historyRepo repository.AdaptationHistoryRepository
	uow         repository.UnitOfWork
	engine      *adaptation.Engine
	scheduler   DeliveryScheduler
	logger      *zap.Logger
}

// NewAdaptationService wires the adaptation service.
func NewAdaptationService(
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	versionRepo repository.PlanVersionRepository,
	historyRepo repository.AdaptationHistoryRepository,
	uow repository.UnitOfWork,
	engine *adaptation.Engine,
	scheduler DeliveryScheduler,
	logger *zap.Logger,
) AdaptationService {
	return &adaptationService{
		userRepo:    userRepo,
		planRepo:    planRepo,
		versionRepo: versionRepo,
		historyRepo: historyRepo,
		uow:         uow,
		engine:      engine,
		scheduler:   scheduler,
		logger:      logger,
	}
}

// currentPlan returns the user's live plan: active, or paused when the user
// sits in ACTIVE_PAUSED.
func (s *adaptationService) currentPlan(ctx context.Context, userID primitive.ObjectID) (*domain.Plan, error) {
	plans, err := s.planRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range plans {
		if plans[i].Status == domain.PlanActive || plans[i].Status == domain.PlanPaused {
			return &plans[i], nil
		}
	}
	return nil, ErrNoAdaptablePlan
}

// Apply runs one adaptation end to end: enter the adaptation tunnel, check
// policy, mutate the plan through the engine, persist plan + version record
// + history entry in one transaction with an optimistic-concurrency check,
// resolve the gate back through the confirmation sub-state, and finally
// sequence delivery side effects post-commit.
func (s *adaptationService) Apply(ctx context.Context, userID primitive.ObjectID, req AdaptationRequest) (*AdaptationOutcome, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.currentPlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	origin := fsm.State(user.CurrentState)
	if !fsm.CanTransition(origin, fsm.StateAdaptationFlow) {
		s.logger.Warn("state transition rejected",
			zap.String("userId", userID.Hex()),
			zap.String("from", origin.String()),
			zap.String("to", fsm.StateAdaptationFlow.String()),
		)
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, origin, fsm.StateAdaptationFlow)
	}
	if err := s.userRepo.UpdateState(ctx, userID, origin.String(), fsm.StateAdaptationFlow.String()); err != nil {
		return nil, err
	}

	outcome, err := s.applyLocked(ctx, user, plan, req)

	// Resolve the tunnel regardless of outcome: through the confirmation
	// sub-state matching where the plan ended up.
	s.resolveGate(ctx, userID, plan, outcome)

	if err != nil {
		var notEligible *adaptation.NotEligibleError
		if errors.As(err, &notEligible) {
			s.logger.Info("adaptation blocked",
				zap.String("userId", userID.Hex()),
				zap.String("intent", string(notEligible.Intent)),
				zap.String("reason", notEligible.Reason),
			)
		}
		return nil, err
	}

	s.sideEffects(ctx, user, outcome)

	s.logger.Info("adaptation applied",
		zap.String("userId", userID.Hex()),
		zap.String("planId", outcome.Plan.ID.Hex()),
		zap.String("intent", string(outcome.Intent)),
		zap.Int("canceled", len(outcome.Diff.CanceledStepIDs)),
		zap.Int("added", len(outcome.Diff.AddedStepIDs)),
		zap.Int("rescheduled", len(outcome.Diff.RescheduledStepIDs)),
	)
	return outcome, nil
}

func (s *adaptationService) applyLocked(ctx context.Context, user *domain.User, plan *domain.Plan, req AdaptationRequest) (*AdaptationOutcome, error) {
	now := time.Now().UTC()

	history, err := s.historyRepo.ListByPlanID(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	if err := adaptation.CheckEligibility(req.Intent, plan, history, now); err != nil {
		return nil, err
	}

	slotTimes, err := schedule.NormalizeSlotTimes(user.DailyTimeSlots, false)
	if err != nil {
		return nil, err
	}

	expectedVersion := plan.AdaptationVersion

	var result *adaptation.Result
	switch req.Intent {
	case domain.IntentReduceDailyLoad:
		result, err = s.engine.ReduceLoad(plan, req.SlotToRemove, now)
	case domain.IntentIncreaseDailyLoad:
		result, err = s.engine.IncreaseLoad(plan, req.SlotToAdd, now)
	case domain.IntentLowerDifficulty, domain.IntentIncreaseDifficulty:
		result, err = s.engine.AdjustDifficulty(plan, req.Intent, now)
	case domain.IntentShortenPlanDuration:
		result, err = s.engine.ShortenDuration(plan, req.TargetDays, now)
	case domain.IntentExtendPlanDuration:
		result, err = s.engine.ExtendDuration(plan, req.TargetDays, user.Policy, user.ID.Hex(), now)
	case domain.IntentPausePlan:
		result, err = s.engine.Pause(plan, now)
	case domain.IntentResumePlan:
		result, err = s.engine.Resume(plan, user.Timezone, slotTimes, now)
	case domain.IntentChangeMainCategory:
		result, err = s.engine.ChangeMainCategory(plan, req.NewFocus, user.Policy, user.ID.Hex(), now)
	default:
		err = &adaptation.NotEligibleError{Intent: req.Intent, Reason: adaptation.ReasonUnknownIntent}
	}
	if err != nil {
		return nil, err
	}

	// Schedule delivery instants for steps the engine created without one.
	if err := s.scheduleNewSteps(plan, result.Diff.AddedStepIDs, user.Timezone, slotTimes); err != nil {
		return nil, err
	}

	outcome := &AdaptationOutcome{
		Intent:    result.Intent,
		Plan:      plan,
		AppliedAt: now,
	}

	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		if result.NewDraft != nil {
			newPlan, err := s.activateReplacement(txCtx, user, result.NewDraft, now, slotTimes)
			if err != nil {
				return err
			}
			outcome.NewPlan = newPlan
			result.Diff.RelatedPlanID = &newPlan.ID
		}

		if err := s.planRepo.Update(txCtx, plan, expectedVersion); err != nil {
			return err
		}
		if err := s.versionRepo.Append(txCtx, &domain.PlanVersion{
			PlanID:         plan.ID,
			AdaptationType: result.Intent,
			AppliedAt:      now,
			Diff:           result.Diff,
		}); err != nil {
			return err
		}
		return s.historyRepo.Append(txCtx, &domain.AdaptationHistory{
			PlanID:    plan.ID,
			UserID:    user.ID,
			Intent:    result.Intent,
			Category:  result.Intent.Category(),
			AppliedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	outcome.Diff = result.Diff
	return outcome, nil
}

// activateReplacement persists the focus-change replacement plan inside the
// owning transaction.
func (s *adaptationService) activateReplacement(ctx context.Context, user *domain.User, draft *domain.Draft, now time.Time, slotTimes map[domain.TimeSlot]string) (*domain.Plan, error) {
	draft.UserID = user.ID
	anchor, err := schedule.ResolveAnchor(draft, now, user.Timezone, slotTimes)
	if err != nil {
		return nil, err
	}
	newPlan, _, err := buildPlanFromDraft(draft, user.ID, anchor, user.Timezone, slotTimes)
	if err != nil {
		return nil, err
	}
	if _, err := s.planRepo.Create(ctx, newPlan); err != nil {
		return nil, err
	}
	return newPlan, nil
}

// scheduleNewSteps fills scheduled_for on engine-added steps from the plan's
// start anchor.
func (s *adaptationService) scheduleNewSteps(plan *domain.Plan, addedIDs []string, timezone string, slotTimes map[domain.TimeSlot]string) error {
	if len(addedIDs) == 0 {
		return nil
	}
	added := make(map[string]bool, len(addedIDs))
	for _, id := range addedIDs {
		added[id] = true
	}
	for i := range plan.Days {
		day := &plan.Days[i]
		for j := range day.Steps {
			step := &day.Steps[j]
			if !added[step.ID] || step.ScheduledFor != nil {
				continue
			}
			instant, err := schedule.ComputeScheduledFor(plan.StartDate, day.DayNumber, step.TimeSlot, timezone, slotTimes)
			if err != nil {
				return err
			}
			step.ScheduledFor = &instant
		}
	}
	return nil
}

// resolveGate walks the user back out of the adaptation tunnel through the
// confirmation sub-state matching the plan's final status.
func (s *adaptationService) resolveGate(ctx context.Context, userID primitive.ObjectID, plan *domain.Plan, outcome *AdaptationOutcome) {
	confirmation := fsm.StateActiveConfirmation
	final := fsm.StateActive
	if plan.Status == domain.PlanPaused && (outcome == nil || outcome.NewPlan == nil) {
		confirmation = fsm.StateActivePausedConfirmation
		final = fsm.StateActivePaused
	}

	if err := s.userRepo.UpdateState(ctx, userID, fsm.StateAdaptationFlow.String(), confirmation.String()); err != nil {
		s.logger.Error("gate resolve failed", zap.String("userId", userID.Hex()), zap.Error(err))
		return
	}
	if err := s.userRepo.UpdateState(ctx, userID, confirmation.String(), final.String()); err != nil {
		s.logger.Error("gate resolve failed", zap.String("userId", userID.Hex()), zap.Error(err))
	}
}

// sideEffects sequences delivery changes strictly after commit.
func (s *adaptationService) sideEffects(ctx context.Context, user *domain.User, outcome *AdaptationOutcome) {
	toCancel := append([]string{}, outcome.Diff.CanceledStepIDs...)
	if outcome.Intent == domain.IntentPausePlan {
		toCancel = append(toCancel, outcome.Diff.RescheduledStepIDs...)
	}
	if len(toCancel) > 0 {
		if err := s.scheduler.CancelJobs(ctx, toCancel); err != nil {
			s.logger.Error("delivery cancellation failed", zap.Error(err))
		}
	}

	schedulePlan := func(plan *domain.Plan, ids []string) {
		for _, stepID := range ids {
			step := plan.FindStep(stepID)
			if step == nil || step.ScheduledFor == nil {
				continue
			}
			if err := s.scheduler.ScheduleStep(ctx, stepID, *step.ScheduledFor, user.Timezone); err != nil {
				s.logger.Error("delivery scheduling failed", zap.String("stepId", stepID), zap.Error(err))
			}
		}
	}
	schedulePlan(outcome.Plan, outcome.Diff.AddedStepIDs)
	if outcome.Intent == domain.IntentResumePlan {
		schedulePlan(outcome.Plan, outcome.Diff.RescheduledStepIDs)
	}
	if outcome.NewPlan != nil {
		var ids []string
		for i := range outcome.NewPlan.Days {
			for j := range outcome.NewPlan.Days[i].Steps {
				ids = append(ids, outcome.NewPlan.Days[i].Steps[j].ID)
			}
		}
		schedulePlan(outcome.NewPlan, ids)
	}
}

// Undo applies the inverse of the most recent reversible adaptation as a new
// adaptation. Irreversible intents (duration, focus change) cannot be
// undone.
func (s *adaptationService) Undo(ctx context.Context, userID primitive.ObjectID) (*AdaptationOutcome, error) {
	plan, err := s.currentPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.historyRepo.ListByPlanID(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	for _, entry := range history {
		if entry.IsRolledBack {
			continue
		}
		inverse, ok := entry.Intent.Inverse()
		if !ok {
			return nil, ErrNothingToUndo
		}

		req := AdaptationRequest{Intent: inverse}
		switch inverse {
		case domain.IntentIncreaseDailyLoad:
			// The removed slot is the natural place to restore.
			if slot, err := s.slotRemovedBy(ctx, plan.ID, entry); err != nil {
				return nil, err
			} else if slot != "" {
				req.SlotToAdd = slot
			} else {
				req.SlotToAdd = findMissingSlot(plan)
			}
		case domain.IntentReduceDailyLoad:
			// The slot the original increase added comes from the version log.
			slot, err := s.slotAddedBy(ctx, plan.ID, entry)
			if err != nil {
				return nil, err
			}
			req.SlotToRemove = slot
		}

		outcome, err := s.Apply(ctx, userID, req)
		if err != nil {
			return nil, err
		}
		if err := s.historyRepo.MarkRolledBack(ctx, entry.ID); err != nil {
			s.logger.Error("failed to mark adaptation rolled back",
				zap.String("historyId", entry.ID.Hex()),
				zap.Error(err),
			)
		}
		return outcome, nil
	}
	return nil, ErrNothingToUndo
}

// versionDiffFor finds the version record written alongside one history
// entry.
func (s *adaptationService) versionDiffFor(ctx context.Context, planID primitive.ObjectID, entry domain.AdaptationHistory) (*domain.VersionDiff, error) {
	versions, err := s.versionRepo.ListByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	for i := range versions {
		if versions[i].AdaptationType == entry.Intent && versions[i].AppliedAt.Equal(entry.AppliedAt) {
			return &versions[i].Diff, nil
		}
	}
	return nil, nil
}

func (s *adaptationService) slotAddedBy(ctx context.Context, planID primitive.ObjectID, entry domain.AdaptationHistory) (domain.TimeSlot, error) {
	diff, err := s.versionDiffFor(ctx, planID, entry)
	if err != nil || diff == nil {
		return "", err
	}
	return diff.SlotAdded, nil
}

func (s *adaptationService) slotRemovedBy(ctx context.Context, planID primitive.ObjectID, entry domain.AdaptationHistory) (domain.TimeSlot, error) {
	diff, err := s.versionDiffFor(ctx, planID, entry)
	if err != nil || diff == nil {
		return "", err
	}
	return diff.SlotRemoved, nil
}

func findMissingSlot(plan *domain.Plan) domain.TimeSlot {
	active := plan.ActiveTimeSlots()
	for _, slot := range domain.AllTimeSlots() {
		found := false
		for _, a := range active {
			if a == slot {
				found = true
				break
			}
		}
		if !found {
			return slot
		}
	}
	return ""
}

// History returns the user's adaptation history, newest first.
func (s *adaptationService) History(ctx context.Context, userID primitive.ObjectID) ([]domain.AdaptationHistory, error) {
	return s.historyRepo.ListByUserID(ctx, userID)
}

// Analytics computes adaptation quality metrics for one plan.
func (s *adaptationService) Analytics(ctx context.Context, planID primitive.ObjectID) (*AdaptationAnalytics, error) {
	history, err := s.historyRepo.ListByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	analytics := ComputeAdaptationAnalytics(history, time.Now().UTC())
	return &analytics, nil
}
