package repo

// AddEffect installs fx in the first free effect slot, expiring at
// expiryTick. Returns ErrArenaFull if all MaxFx slots are in use
// (spec.md §7, "Resource exhaustion").
func (r *Repository) AddEffect(fx Effect, expiryTick uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.effects {
		if !r.effects[i].Used {
			fx.Used = true
			fx.Expiry = expiryTick
			r.effects[i] = fx
			return nil
		}
	}
	return ErrArenaFull
}

// SweepEffects clears every effect whose Expiry has passed `now`, calling
// onExpire for each one before clearing it. This is the one place effects
// are removed; callers never zero r.effects directly.
func (r *Repository) SweepEffects(now uint64, onExpire func(Effect)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.effects {
		fx := &r.effects[i]
		if fx.Used && fx.Expiry <= now {
			if onExpire != nil {
				onExpire(*fx)
			}
			r.effects[i] = Effect{}
		}
	}
}
