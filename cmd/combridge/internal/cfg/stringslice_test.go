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

package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSlice_Set(t *testing.T) {
	type args struct {
		s string
	}
	tests := []struct {
		name string
		ss   *StringSlice
		args args
		want StringSlice
	}{
		{
			name: "sets the string slice",
			ss:   new(StringSlice),
			args: args{"Excel.Application,Word.Application,SAPI.SpVoice"},
			want: StringSlice{"Excel.Application", "Word.Application", "SAPI.SpVoice"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ss.Set(tt.args.s)
			assert.Equal(t, tt.want, *tt.ss)
		})
	}
}

func TestStringSlice_String(t *testing.T) {
	tests := []struct {
		name string
		ss   *StringSlice
		want string
	}{
		{
			name: "joins entries",
			ss:   &StringSlice{"Excel.Application", "Word.Application"},
			want: "Excel.Application,Word.Application",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ss.String(); got != tt.want {
				t.Errorf("StringSlice.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnvDuration(t *testing.T) {
	t.Run("unset returns default", func(t *testing.T) {
		assert.EqualValues(t, 0, envDuration("COMBRIDGE_TEST_UNSET", 0))
	})
	t.Run("parses a duration", func(t *testing.T) {
		t.Setenv("COMBRIDGE_TEST_DUR", "30s")
		assert.Equal(t, "30s", envDuration("COMBRIDGE_TEST_DUR", 0).String())
	})
	t.Run("garbage falls back to default", func(t *testing.T) {
		t.Setenv("COMBRIDGE_TEST_DUR", "not-a-duration")
		assert.EqualValues(t, 0, envDuration("COMBRIDGE_TEST_DUR", 0))
	})
}
