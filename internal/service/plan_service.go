package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"balans/wellbeing-app/internal/domain"
	"balans/wellbeing-app/internal/fsm"
	"balans/wellbeing-app/internal/planner"
	"balans/wellbeing-app/internal/repository"
	"balans/wellbeing-app/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrIllegalTransition = errors.New("illegal state transition")
	ErrDraftInvalid      = errors.New("draft failed validation")
	ErrNoPendingDraft    = errors.New("no pending draft to finalize")
	ErrNoActivePlan      = errors.New("no active plan")
)

// PlanService drives the plan lifecycle: entering the composition flow,
// building and replacing drafts, finalization into a live scheduled plan,
// and user schedule preferences.
type PlanService interface {
	StartPlanFlow(ctx context.Context, userID primitive.ObjectID) error
	ComposeDraft(ctx context.Context, userID primitive.ObjectID, params domain.PlanParameters) (*domain.Draft, error)
	AbortPlanFlow(ctx context.Context, userID primitive.ObjectID) error
	FinalizePlan(ctx context.Context, userID primitive.ObjectID) (*domain.Plan, error)
	CompletePlan(ctx context.Context, userID primitive.ObjectID) error

	GetPendingDraft(ctx context.Context, userID primitive.ObjectID) (*domain.Draft, error)
	GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*domain.Plan, error)

	UpdateUserTimeSlots(ctx context.Context, userID primitive.ObjectID, raw map[domain.TimeSlot]string) error
}

type planService struct {
	userRepo  repository.UserRepository
	draftRepo repository.DraftRepository
	planRepo  repository.PlanRepository
	uow       repository.UnitOfWork
	catalog   planner.Catalog
	scheduler DeliveryScheduler
	logger    *zap.Logger
}

// NewPlanService wires the plan lifecycle service.
func NewPlanService(
	userRepo repository.UserRepository,
	draftRepo repository.DraftRepository,
	planRepo repository.PlanRepository,
	uow repository.UnitOfWork,
	cat planner.Catalog,
	scheduler DeliveryScheduler,
	logger *zap.Logger,
) PlanService {
	return &planService{
		userRepo:  userRepo,
		draftRepo: draftRepo,
		planRepo:  planRepo,
		uow:       uow,
		catalog:   cat,
		scheduler: scheduler,
		logger:    logger,
	}
}

// transition moves the user's gate state through CanTransition plus a
// compare-and-set on the stored state, so two concurrent flows cannot both
// win. Rejections are logged with the reason.
func (s *planService) transition(ctx context.Context, user *domain.User, to fsm.State) error {
	from := fsm.State(user.CurrentState)
	if !fsm.CanTransition(from, to) {
		s.logger.Warn("state transition rejected",
			zap.String("userId", user.ID.Hex()),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	if err := s.userRepo.UpdateState(ctx, user.ID, from.String(), to.String()); err != nil {
		return err
	}
	user.CurrentState = to.String()
	return nil
}

// StartPlanFlow enters the composition tunnel from one of the whitelisted
// entrypoints.
func (s *planService) StartPlanFlow(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.transition(ctx, user, fsm.StateDataCollection)
}

// ComposeDraft builds a deterministic draft from the three pillars and
// stores it as the user's single pending draft, replacing any previous one.
// The user id seeds exercise rotation so different users get different but
// individually reproducible plans.
func (s *planService) ComposeDraft(ctx context.Context, userID primitive.ObjectID, params domain.PlanParameters) (*domain.Draft, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	state := fsm.State(user.CurrentState)
	if state == fsm.StateConfirmationPending {
		// Re-composition: the user went back to change a pillar.
		if err := s.transition(ctx, user, fsm.StateDataCollection); err != nil {
			return nil, err
		}
	} else if state != fsm.StateDataCollection {
		return nil, fmt.Errorf("%w: compose requires %s, user in %s", ErrIllegalTransition, fsm.StateDataCollection, state)
	}

	if len(params.Policy.PreferredTimeSlots) == 0 {
		params.Policy.PreferredTimeSlots = user.Policy.PreferredTimeSlots
	}
	if len(params.Policy.ForbiddenCategories) == 0 {
		params.Policy.ForbiddenCategories = user.Policy.ForbiddenCategories
	}
	if len(params.Policy.ForbiddenImpactAreas) == 0 {
		params.Policy.ForbiddenImpactAreas = user.Policy.ForbiddenImpactAreas
	}

	draft, err := planner.BuildDraft(params, s.catalog, userID.Hex())
	if err != nil {
		return nil, err
	}
	draft.UserID = userID

	if err := s.draftRepo.Replace(ctx, draft); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, user, fsm.StateConfirmationPending); err != nil {
		return nil, err
	}

	s.logger.Info("draft composed",
		zap.String("userId", userID.Hex()),
		zap.String("draftId", draft.ID),
		zap.Int("totalDays", draft.TotalDays),
		zap.Int("steps", len(draft.Steps)),
		zap.Bool("valid", draft.IsValid()),
	)
	return draft, nil
}

// AbortPlanFlow leaves the composition tunnel without a plan.
func (s *planService) AbortPlanFlow(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.transition(ctx, user, fsm.StateIdlePlanAborted)
}

// scheduledStep is collected during finalization for post-commit delivery
// scheduling.
type scheduledStep struct {
	stepID       string
	scheduledFor time.Time
}

// FinalizePlan turns the user's pending draft into the single active plan:
// resolves the activation anchor in the user's timezone, computes every
// step's delivery instant, abandons any previously active plan, and persists
// plan, draft status and gate state in one transaction. Delivery jobs are
// arranged only after the transaction commits.
func (s *planService) FinalizePlan(ctx context.Context, userID primitive.ObjectID) (*domain.Plan, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, user, fsm.StateFinalization); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	slotTimes, err := schedule.NormalizeSlotTimes(user.DailyTimeSlots, false)
	if err != nil {
		return nil, err
	}

	var plan *domain.Plan
	var toSchedule []scheduledStep

	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		draft, err := s.draftRepo.GetPendingByUserID(txCtx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNoPendingDraft
			}
			return err
		}
		if !draft.IsValid() {
			return fmt.Errorf("%w: %v", ErrDraftInvalid, draft.ValidationErrors)
		}

		// At most one active plan per user: the check and the insert sit in
		// the same transaction, and the partial unique index backs it up.
		if existing, err := s.planRepo.GetActiveByUserID(txCtx, userID); err == nil {
			if err := s.planRepo.UpdateStatus(txCtx, existing.ID, domain.PlanAbandoned); err != nil {
				return err
			}
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		anchor, err := schedule.ResolveAnchor(draft, now, user.Timezone, slotTimes)
		if err != nil {
			return err
		}

		plan, toSchedule, err = buildPlanFromDraft(draft, userID, anchor, user.Timezone, slotTimes)
		if err != nil {
			return err
		}

		if _, err := s.planRepo.Create(txCtx, plan); err != nil {
			return err
		}
		if err := s.draftRepo.MarkFinalized(txCtx, draft.ID); err != nil {
			return err
		}
		return s.userRepo.UpdateState(txCtx, userID, fsm.StateFinalization.String(), fsm.StateActive.String())
	})
	if err != nil {
		return nil, err
	}

	for _, item := range toSchedule {
		if err := s.scheduler.ScheduleStep(ctx, item.stepID, item.scheduledFor, user.Timezone); err != nil {
			s.logger.Error("delivery scheduling failed",
				zap.String("stepId", item.stepID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("plan activated",
		zap.String("userId", userID.Hex()),
		zap.String("planId", plan.ID.Hex()),
		zap.Time("startDate", plan.StartDate),
		zap.Int("scheduledSteps", len(toSchedule)),
	)
	return plan, nil
}

// buildPlanFromDraft materializes the live plan: one PlanDay per draft day,
// steps carrying their draft ids, scheduled_for computed from the anchor.
func buildPlanFromDraft(draft *domain.Draft, userID primitive.ObjectID, anchorUTC time.Time, timezone string, slotTimes map[domain.TimeSlot]string) (*domain.Plan, []scheduledStep, error) {
	plan := &domain.Plan{
		UserID:        userID,
		Status:        domain.PlanActive,
		Focus:         draft.Focus,
		Load:          draft.Load,
		Duration:      draft.Duration,
		TotalDays:     draft.TotalDays,
		CurrentDay:    1,
		StartDate:     anchorUTC,
		SourceDraftID: draft.ID,
	}
	end := anchorUTC.AddDate(0, 0, draft.TotalDays)
	plan.EndDate = &end

	slotSeen := map[domain.TimeSlot]bool{}
	var toSchedule []scheduledStep

	for day := 1; day <= draft.TotalDays; day++ {
		planDay := domain.PlanDay{DayNumber: day}
		for i, ds := range draft.StepsForDay(day) {
			instant, err := schedule.ComputeScheduledFor(anchorUTC, day, ds.TimeSlot, timezone, slotTimes)
			if err != nil {
				return nil, nil, err
			}
			step := domain.PlanStep{
				ID:           ds.StepID,
				ExerciseID:   ds.ExerciseID,
				Title:        ds.ExerciseName,
				Category:     ds.Category,
				SlotType:     ds.SlotType,
				TimeSlot:     ds.TimeSlot,
				Difficulty:   ds.Difficulty,
				EnergyCost:   ds.EnergyCost,
				OrderInDay:   i,
				ScheduledFor: &instant,
			}
			planDay.Steps = append(planDay.Steps, step)
			toSchedule = append(toSchedule, scheduledStep{stepID: step.ID, scheduledFor: instant})
			if !slotSeen[ds.TimeSlot] {
				slotSeen[ds.TimeSlot] = true
				plan.PreferredTimeSlots = append(plan.PreferredTimeSlots, ds.TimeSlot)
			}
		}
		plan.Days = append(plan.Days, planDay)
	}
	return plan, toSchedule, nil
}

// CompletePlan closes out a finished plan and releases the user to idle.
func (s *planService) CompletePlan(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	plan, err := s.planRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoActivePlan
		}
		return err
	}

	return s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.planRepo.UpdateStatus(txCtx, plan.ID, domain.PlanCompleted); err != nil {
			return err
		}
		from := fsm.State(user.CurrentState)
		if !fsm.CanTransition(from, fsm.StateIdlePlanCompleted) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, fsm.StateIdlePlanCompleted)
		}
		return s.userRepo.UpdateState(txCtx, userID, from.String(), fsm.StateIdlePlanCompleted.String())
	})
}

// GetPendingDraft returns the user's pending draft.
func (s *planService) GetPendingDraft(ctx context.Context, userID primitive.ObjectID) (*domain.Draft, error) {
	return s.draftRepo.GetPendingByUserID(ctx, userID)
}

// GetActivePlan returns the user's active plan.
func (s *planService) GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.planRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActivePlan
		}
		return nil, err
	}
	return plan, nil
}

// UpdateUserTimeSlots validates and stores per-slot delivery time overrides,
// then reschedules every future step of the active plan to the new times.
// Delivery jobs move only after the transaction commits.
func (s *planService) UpdateUserTimeSlots(ctx context.Context, userID primitive.ObjectID, raw map[domain.TimeSlot]string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	slotTimes, err := schedule.NormalizeSlotTimes(raw, false)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var plan *domain.Plan
	var rescheduled []string

	err = s.uow.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.UpdateTimeSlots(txCtx, userID, slotTimes); err != nil {
			return err
		}

		var err error
		plan, err = s.planRepo.GetActiveByUserID(txCtx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				plan = nil
				return nil
			}
			return err
		}

		expected := plan.AdaptationVersion
		rescheduled, err = schedule.RecomputeFutureSteps(plan, user.Timezone, slotTimes, now)
		if err != nil {
			return err
		}
		plan.AdaptationVersion++
		return s.planRepo.Update(txCtx, plan, expected)
	})
	if err != nil {
		return err
	}

	if plan != nil && len(rescheduled) > 0 {
		if err := s.scheduler.CancelJobs(ctx, rescheduled); err != nil {
			s.logger.Error("delivery cancellation failed", zap.Error(err))
		}
		for _, stepID := range rescheduled {
			if step := plan.FindStep(stepID); step != nil && step.ScheduledFor != nil {
				if err := s.scheduler.ScheduleStep(ctx, stepID, *step.ScheduledFor, user.Timezone); err != nil {
					s.logger.Error("delivery scheduling failed", zap.String("stepId", stepID), zap.Error(err))
				}
			}
		}
	}
	return nil
}
