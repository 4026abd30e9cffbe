// Copyright (c) 2025-2026 Combridge Authors and Contributors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/olebound/combridge/internal/comrt"
	"github.com/olebound/combridge/internal/comrt/mock_comrt"
	"github.com/olebound/combridge/internal/policy"
)

func newTestRegistry(t *testing.T, ctrl *gomock.Controller, pol *policy.Policy) (*Registry, *mock_comrt.MockConnector) {
	t.Helper()
	conn := mock_comrt.NewMockConnector(ctrl)
	return New(conn, pol, nil), conn
}

func newMockObject(ctrl *gomock.Controller, progID string) *mock_comrt.MockObject {
	obj := mock_comrt.NewMockObject(ctrl)
	obj.EXPECT().Identity().Return(comrt.Identity{ProgID: progID}).AnyTimes()
	return obj
}

func TestCreate(t *testing.T) {
	t.Run("registers the instance", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reg, conn := newTestRegistry(t, ctrl, nil)
		conn.EXPECT().CreateInstance("Excel.Application").Return(newMockObject(ctrl, "Excel.Application"), nil)

		info, err := reg.Create(t.Context(), "Excel.Application")
		require.NoError(t, err)
		assert.NotEmpty(t, info.Handle)
		assert.Equal(t, "Excel.Application", info.Identifier)
		assert.Equal(t, "Excel.Application", info.ProgID)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("identifier is trimmed before the policy check", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reg, conn := newTestRegistry(t, ctrl, policy.New([]string{"Excel.Application"}))
		conn.EXPECT().CreateInstance("Excel.Application").Return(newMockObject(ctrl, "Excel.Application"), nil)

		_, err := reg.Create(t.Context(), "  Excel.Application ")
		assert.NoError(t, err)
	})

	t.Run("denied identifier does not reach the connector", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reg, _ := newTestRegistry(t, ctrl, policy.New([]string{"Word.Application"}))

		_, err := reg.Create(t.Context(), "Excel.Application")
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Equal(t, 0, reg.Len())
	})

	t.Run("failed instantiation registers nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reg, conn := newTestRegistry(t, ctrl, nil)
		conn.EXPECT().CreateInstance("Bogus.Class").Return(nil, errors.New("Invalid class string"))

		_, err := reg.Create(t.Context(), "Bogus.Class")
		assert.ErrorIs(t, err, ErrInstantiation)
		assert.Equal(t, 0, reg.Len())
	})

	t.Run("handles are unique", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reg, conn := newTestRegistry(t, ctrl, nil)
		seen := make(map[string]bool)
		for range 100 {
			conn.EXPECT().CreateInstance("X.Y").Return(newMockObject(ctrl, "X.Y"), nil)
			info, err := reg.Create(t.Context(), "X.Y")
			require.NoError(t, err)
			require.False(t, seen[info.Handle], "handle reused: %s", info.Handle)
			seen[info.Handle] = true
		}
	})
}

func TestAdopt(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, _ := newTestRegistry(t, ctrl, nil)

	t.Run("uses the type name as identifier", func(t *testing.T) {
		info := reg.Adopt(newMockObject(ctrl, ""), "Workbook")
		assert.Equal(t, "Workbook", info.Identifier)
	})
	t.Run("empty type name falls back to Unknown", func(t *testing.T) {
		info := reg.Adopt(newMockObject(ctrl, ""), "")
		assert.Equal(t, "Unknown", info.Identifier)
	})
}

func TestResolveDo(t *testing.T) {
	t.Run("resolved record borrows the object", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reg, conn := newTestRegistry(t, ctrl, nil)
		obj := newMockObject(ctrl, "Excel.Application")
		conn.EXPECT().CreateInstance("Excel.Application").Return(obj, nil)
		info, err := reg.Create(t.Context(), "Excel.Application")
		require.NoError(t, err)

		rec, err := reg.Resolve(info.Handle)
		require.NoError(t, err)
		called := false
		require.NoError(t, rec.Do(func(o comrt.Object) error {
			called = true
			assert.Same(t, obj, o)
			return nil
		}))
		assert.True(t, called)
	})

	t.Run("unknown handle", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reg, _ := newTestRegistry(t, ctrl, nil)
		_, err := reg.Resolve("no-such-handle")
		assert.ErrorIs(t, err, ErrInvalidHandle)
	})

	t.Run("Do after dispose fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reg, conn := newTestRegistry(t, ctrl, nil)
		obj := newMockObject(ctrl, "Excel.Application")
		conn.EXPECT().CreateInstance("Excel.Application").Return(obj, nil)
		info, err := reg.Create(t.Context(), "Excel.Application")
		require.NoError(t, err)

		rec, err := reg.Resolve(info.Handle)
		require.NoError(t, err)

		obj.EXPECT().Release().Return(nil)
		require.NoError(t, reg.Dispose(info.Handle))

		err = rec.Do(func(comrt.Object) error { return nil })
		assert.ErrorIs(t, err, ErrInvalidHandle)
	})
}

func TestDispose(t *testing.T) {
	t.Run("releases and invalidates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reg, conn := newTestRegistry(t, ctrl, nil)
		obj := newMockObject(ctrl, "Excel.Application")
		conn.EXPECT().CreateInstance("Excel.Application").Return(obj, nil)
		info, err := reg.Create(t.Context(), "Excel.Application")
		require.NoError(t, err)

		obj.EXPECT().Release().Return(nil)
		require.NoError(t, reg.Dispose(info.Handle))
		assert.Equal(t, 0, reg.Len())

		_, err = reg.Resolve(info.Handle)
		assert.ErrorIs(t, err, ErrInvalidHandle)
	})

	t.Run("not idempotent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reg, conn := newTestRegistry(t, ctrl, nil)
		obj := newMockObject(ctrl, "Excel.Application")
		conn.EXPECT().CreateInstance("Excel.Application").Return(obj, nil)
		info, err := reg.Create(t.Context(), "Excel.Application")
		require.NoError(t, err)

		obj.EXPECT().Release().Return(nil)
		require.NoError(t, reg.Dispose(info.Handle))
		assert.ErrorIs(t, reg.Dispose(info.Handle), ErrInvalidHandle)
	})

	t.Run("release failure surfaces as DisposalWarning", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reg, conn := newTestRegistry(t, ctrl, nil)
		obj := newMockObject(ctrl, "Excel.Application")
		conn.EXPECT().CreateInstance("Excel.Application").Return(obj, nil)
		info, err := reg.Create(t.Context(), "Excel.Application")
		require.NoError(t, err)

		releaseErr := errors.New("RPC server unavailable")
		obj.EXPECT().Release().Return(releaseErr)

		err = reg.Dispose(info.Handle)
		var warn *DisposalWarning
		require.ErrorAs(t, err, &warn)
		assert.Equal(t, info.Handle, warn.Handle)
		assert.ErrorIs(t, err, releaseErr)
		// the handle is gone regardless of the release failure.
		assert.Equal(t, 0, reg.Len())
	})

	t.Run("concurrent disposal releases exactly once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reg, conn := newTestRegistry(t, ctrl, nil)
		obj := newMockObject(ctrl, "Excel.Application")
		conn.EXPECT().CreateInstance("Excel.Application").Return(obj, nil)
		info, err := reg.Create(t.Context(), "Excel.Application")
		require.NoError(t, err)

		obj.EXPECT().Release().Return(nil).Times(1)

		const n = 8
		errs := make([]error, n)
		var wg sync.WaitGroup
		wg.Add(n)
		for i := range n {
			go func() {
				defer wg.Done()
				errs[i] = reg.Dispose(info.Handle)
			}()
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, ErrInvalidHandle)
			}
		}
		assert.Equal(t, 1, succeeded)
	})
}

func TestList(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, conn := newTestRegistry(t, ctrl, nil)
	assert.Empty(t, reg.List())

	conn.EXPECT().CreateInstance(gomock.Any()).Return(newMockObject(ctrl, "Excel.Application"), nil)
	first, err := reg.Create(t.Context(), "Excel.Application")
	require.NoError(t, err)
	conn.EXPECT().CreateInstance(gomock.Any()).Return(newMockObject(ctrl, "Word.Application"), nil)
	second, err := reg.Create(t.Context(), "Word.Application")
	require.NoError(t, err)

	infos := reg.List()
	require.Len(t, infos, 2)
	// ordered by creation time.
	assert.Equal(t, first.Handle, infos[0].Handle)
	assert.Equal(t, second.Handle, infos[1].Handle)
}

func TestClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, conn := newTestRegistry(t, ctrl, nil)

	for _, id := range []string{"Excel.Application", "Word.Application"} {
		obj := newMockObject(ctrl, id)
		obj.EXPECT().Release().Return(nil)
		conn.EXPECT().CreateInstance(id).Return(obj, nil)
		_, err := reg.Create(t.Context(), id)
		require.NoError(t, err)
	}

	require.NoError(t, reg.Close())
	assert.Equal(t, 0, reg.Len())
}
