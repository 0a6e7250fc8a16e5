/*

This file contains the privileged vault surface. Every entry point resolves
the caller's role through the access gate before touching state: MANAGER owns
fee settings and crisis recovery, CURATOR owns the strategy set, ALLOCATOR
owns caps, queues and fund movement.

*/

package vault

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/stratofi/svm/internal/access"
	"github.com/stratofi/svm/internal/fixedpoint"
	"github.com/stratofi/svm/internal/strategy"
	"github.com/stratofi/svm/internal/types"
)

func (v *Vault) requireRole(role access.Role, caller string) error {
	if caller == "" || !v.gate.HasRole(role, caller) {
		return errors.Join(ErrUnauthorized,
			fmt.Errorf("caller %q lacks role %s", caller, role))
	}
	return nil
}

func validateFeeBps(bps uint64) error {
	if bps > fixedpoint.BpsScale {
		return errors.Join(ErrInvalidConfig,
			fmt.Errorf("fee %d bps exceeds the scale", bps))
	}
	return nil
}

// SetEntryFeeBps replaces the entry fee. MANAGER only.
func (v *Vault) SetEntryFeeBps(caller string, bps uint64) error {
	if err := v.requireRole(access.RoleManager, caller); err != nil {
		return err
	}
	if err := validateFeeBps(bps); err != nil {
		return err
	}
	v.entryFeeBps = bps
	v.log.Info().Str("caller", caller).Uint64("entryFeeBps", bps).Msg("Entry fee updated")
	return nil
}

// SetExitFeeBps replaces the exit fee. MANAGER only.
func (v *Vault) SetExitFeeBps(caller string, bps uint64) error {
	if err := v.requireRole(access.RoleManager, caller); err != nil {
		return err
	}
	if err := validateFeeBps(bps); err != nil {
		return err
	}
	v.exitFeeBps = bps
	v.log.Info().Str("caller", caller).Uint64("exitFeeBps", bps).Msg("Exit fee updated")
	return nil
}

// SetFeeRecipient replaces the fee destination. An empty recipient or the
// vault's own address keeps fees inside the vault. MANAGER only.
func (v *Vault) SetFeeRecipient(caller, recipient string) error {
	if err := v.requireRole(access.RoleManager, caller); err != nil {
		return err
	}
	v.feeRecipient = recipient
	v.log.Info().Str("caller", caller).Str("feeRecipient", recipient).Msg("Fee recipient updated")
	return nil
}

// SetMinimumIdleBps replaces the idle-buffer fraction. MANAGER only.
func (v *Vault) SetMinimumIdleBps(caller string, bps uint64) error {
	if err := v.requireRole(access.RoleManager, caller); err != nil {
		return err
	}
	return v.engine.SetMinIdleBps(bps)
}

// EmergencyWithdrawFunds drains every strategy back into idle on a
// best-effort basis. MANAGER only. Returns the total recovered.
func (v *Vault) EmergencyWithdrawFunds(caller string) (sdkmath.Int, error) {
	if err := v.requireRole(access.RoleManager, caller); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := v.enter(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer v.exit()
	return v.engine.EmergencyWithdraw()
}

// AddStrategy registers a new yield destination. CURATOR only.
func (v *Vault) AddStrategy(caller, handle string, adapter strategy.Adapter, strategyCap sdkmath.Int) error {
	if err := v.requireRole(access.RoleCurator, caller); err != nil {
		return err
	}
	if err := v.enter(); err != nil {
		return err
	}
	defer v.exit()
	return v.engine.AddStrategy(handle, adapter, strategyCap)
}

// RemoveStrategy drops a fully drained strategy from the registry. CURATOR
// only.
func (v *Vault) RemoveStrategy(caller, handle string) error {
	if err := v.requireRole(access.RoleCurator, caller); err != nil {
		return err
	}
	if err := v.enter(); err != nil {
		return err
	}
	defer v.exit()
	return v.engine.RemoveStrategy(handle)
}

// ChangeCap replaces a strategy's deposit ceiling. ALLOCATOR only.
func (v *Vault) ChangeCap(caller, handle string, newCap sdkmath.Int) error {
	if err := v.requireRole(access.RoleAllocator, caller); err != nil {
		return err
	}
	if err := v.enter(); err != nil {
		return err
	}
	defer v.exit()
	return v.engine.ChangeCap(handle, newCap)
}

// UpdateSupplyQueue replaces the deposit priority order. ALLOCATOR only.
func (v *Vault) UpdateSupplyQueue(caller string, newOrder []int) error {
	if err := v.requireRole(access.RoleAllocator, caller); err != nil {
		return err
	}
	if err := v.enter(); err != nil {
		return err
	}
	defer v.exit()
	return v.engine.UpdateSupplyQueue(newOrder)
}

// UpdateWithdrawQueue replaces the drain priority order, dropping omitted
// zero-cap zero-balance strategies. ALLOCATOR only.
func (v *Vault) UpdateWithdrawQueue(caller string, newOrder []int) error {
	if err := v.requireRole(access.RoleAllocator, caller); err != nil {
		return err
	}
	if err := v.enter(); err != nil {
		return err
	}
	defer v.exit()
	return v.engine.UpdateWithdrawQueue(newOrder)
}

// ReallocateFunds moves balances between strategies toward the requested
// targets. ALLOCATOR only.
func (v *Vault) ReallocateFunds(caller string, allocations []types.Allocation) error {
	if err := v.requireRole(access.RoleAllocator, caller); err != nil {
		return err
	}
	if err := v.enter(); err != nil {
		return err
	}
	defer v.exit()
	return v.engine.ReallocateFunds(allocations)
}

// WithdrawMaxFunds drains one strategy completely, typically ahead of its
// removal. ALLOCATOR only. Returns the amount recovered.
func (v *Vault) WithdrawMaxFunds(caller, handle string) (sdkmath.Int, error) {
	if err := v.requireRole(access.RoleAllocator, caller); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := v.enter(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer v.exit()
	return v.engine.WithdrawMaxFunds(handle)
}
