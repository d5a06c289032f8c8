package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/e7canasta/motion-recorder/modules/slotstore"
)

// SaveResult describes a finished save.
type SaveResult struct {
	// Slot is where the buffer was written; None when the operator chose
	// not to save.
	Slot slotstore.Slot
	// Stream is the stream name written.
	Stream string
	// RunComplete is true when this save wrote the last composite
	// segment and the cursor wrapped to 0.
	RunComplete bool
}

// Load fills the live buffer from slot.
//
// None marks the session as loaded-with-nothing; Hardcoded marks it as
// the built-in routine. Neither touches storage or the buffer. Loading
// the slot the buffer already mirrors does not reread it. On any read
// failure (ErrNotFound, *ShortReadError, *IOError) the buffer and the
// session are left exactly as they were.
func (r *Recorder) Load(ctx context.Context, slot slotstore.Slot) error {
	if !r.op.TryLock() {
		return ErrBusy
	}
	defer r.op.Unlock()
	defer r.setPhase(PhaseIdle, 0, "")
	return r.load(ctx, slot, r.logger)
}

func (r *Recorder) load(ctx context.Context, slot slotstore.Slot, log *slog.Logger) error {
	if err := r.store.Layout().Check(slot); err != nil {
		return err
	}
	r.setPhase(PhaseLoading, 0, "")

	if !slot.HasStream() {
		r.update(func(s *session) { s.setLoaded(slot, 0) })
		log.Info("recorder: slot selected", "slot", slot.String())
		return nil
	}

	r.mu.Lock()
	held := r.sess.holds(slot)
	r.mu.Unlock()
	if held {
		log.Debug("recorder: slot already loaded", "slot", slot.String())
		return nil
	}

	// Skills always starts from its first segment.
	src := slot
	if slot.Kind == slotstore.KindSkills {
		src = slotstore.SkillsSegment(0)
	}
	buf, err := r.store.Read(ctx, src)
	if err != nil {
		logStoreError(log, "recorder: load failed", slot, err)
		return err
	}
	if err := r.buf.CopyFrom(buf); err != nil {
		return fmt.Errorf("recorder: load %s: %w", slot, err)
	}
	r.update(func(s *session) { s.setLoaded(slot, 0) })
	log.Info("recorder: slot loaded", "slot", slot.String(), "frames", buf.Len())
	return nil
}

// Save writes the live buffer to storage.
//
// During a composite run the target is the segment at the cursor; the
// cursor advances on success and wraps to 0 after the last segment,
// ending the run. Otherwise the chooser picks the target: None saves
// nothing, Skills begins a new run and writes its first segment, a
// regular slot or a single segment is written as is. A failed write
// leaves the cursor and the session unchanged.
func (r *Recorder) Save(ctx context.Context) (*SaveResult, error) {
	if !r.op.TryLock() {
		return nil, ErrBusy
	}
	defer r.op.Unlock()
	defer r.setPhase(PhaseIdle, 0, "")

	r.mu.Lock()
	sess := r.sess
	r.mu.Unlock()

	if sess.state == Unloaded || (sess.state == Loaded && !sess.slot.HasStream()) {
		return nil, ErrNothingToSave
	}

	target := slotstore.SkillsSegment(sess.cursor)
	inRun := sess.skillsRecording
	if !inRun {
		if r.chooser == nil {
			return nil, ErrNoChooser
		}
		choice, err := r.chooser.ChooseSlot(ctx)
		if err != nil {
			return nil, fmt.Errorf("recorder: choose slot: %w", err)
		}
		if err := r.store.Layout().Check(choice); err != nil {
			return nil, err
		}
		switch choice.Kind {
		case slotstore.KindNone:
			r.logger.Info("recorder: save skipped")
			return &SaveResult{Slot: choice}, nil
		case slotstore.KindHardcoded:
			return nil, fmt.Errorf("recorder: save to %s: %w", choice, slotstore.ErrNoBackingStream)
		case slotstore.KindSkills:
			target = slotstore.SkillsSegment(0)
			inRun = true
		default:
			target = choice
		}
	}

	name, err := r.store.NameFor(target)
	if err != nil {
		return nil, err
	}

	r.setPhase(PhaseSaving, 0, "")
	if err := r.store.Write(ctx, target, r.buf); err != nil {
		logStoreError(r.logger, "recorder: save failed", target, err)
		return nil, err
	}

	res := &SaveResult{Slot: target, Stream: name}
	r.update(func(s *session) {
		s.lastSaved = target
		if inRun {
			if !s.skillsRecording {
				s.cursor = 0
			}
			res.RunComplete = s.advance(r.store.Layout().Segments)
			s.setLoaded(slotstore.Skills(), target.N)
			return
		}
		s.setLoaded(target, 0)
	})

	r.logger.Info("recorder: trace saved",
		"slot", target.String(),
		"stream", name,
		"run_complete", res.RunComplete)
	return res, nil
}

func logStoreError(log *slog.Logger, msg string, slot slotstore.Slot, err error) {
	cat := slotstore.Classify(err)
	args := []any{"slot", slot.String(), "category", cat.String(), "error", err}
	if errors.Is(err, slotstore.ErrNotFound) {
		log.Info(msg, args...)
		return
	}
	log.Error(msg, args...)
}
