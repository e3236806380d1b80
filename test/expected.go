// This file is part of Gophergen.
//
// Gophergen is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gophergen is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gophergen.  If not, see <https://www.gnu.org/licenses/>.

package test

import (
	"testing"
)

// Equate is used to test equality between one value and another. The test
// fails if the values are not equal.
//
// Deprecated in favour of ExpectEquality but still used by older tests.
func Equate(t *testing.T, value, expectedValue any) {
	t.Helper()
	if value != expectedValue {
		t.Errorf("equation of type %T failed (%v  - wanted %v)", value, value, expectedValue)
	}
}

// ExpectEquality is used to test equality between one value and another.
func ExpectEquality[T comparable](t *testing.T, value T, expectedValue T) {
	t.Helper()
	if value != expectedValue {
		t.Errorf("equality test of type %T failed: %v does not equal %v", value, value, expectedValue)
	}
}

// ExpectInequality is used to test inequality between one value and another.
// ie. the test passes if the values are not equal.
func ExpectInequality[T comparable](t *testing.T, value T, expectedValue T) {
	t.Helper()
	if value == expectedValue {
		t.Errorf("inequality test of type %T failed: %v does equal %v", value, value, expectedValue)
	}
}

// Approximation is used to test approximate equality. Values of int and
// float types are supported.
type Approximation interface {
	~int | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// ExpectApproximate is used to test approximate equality between one value
// and another. The tolerance value is a fraction of the expected value (0.01
// allows one percent either side).
func ExpectApproximate[T Approximation](t *testing.T, value T, expectedValue T, tolerance float64) {
	t.Helper()

	top := float64(expectedValue) * (1 + tolerance)
	bot := float64(expectedValue) * (1 - tolerance)
	if bot > top {
		top, bot = bot, top
	}

	if float64(value) < bot || float64(value) > top {
		t.Errorf("approximation test of type %T failed: %v is outside the range %v to %v", value, value, bot, top)
	}
}

// ExpectSuccess tests argument v for a success condition suitable for its
// type. Supported types are bool, int and error. The test fails if the
// value is false, zero or non-nil respectively.
func ExpectSuccess(t *testing.T, v any) bool {
	t.Helper()

	switch v := v.(type) {
	case bool:
		if !v {
			t.Errorf("expected success (bool)")
			return false
		}
	case int:
		if v == 0 {
			t.Errorf("expected success (int)")
			return false
		}
	case error:
		if v != nil {
			t.Errorf("expected success (error: %v)", v)
			return false
		}
	case nil:
		// nil type is always a success

	default:
		t.Fatalf("unsupported type (%T) for ExpectSuccess()", v)
		return false
	}

	return true
}

// ExpectFailure tests argument v for a failure condition suitable for its
// type. Supported types are bool, int and error.
func ExpectFailure(t *testing.T, v any) bool {
	t.Helper()

	switch v := v.(type) {
	case bool:
		if v {
			t.Errorf("expected failure (bool)")
			return false
		}
	case int:
		if v != 0 {
			t.Errorf("expected failure (int)")
			return false
		}
	case error:
		if v == nil {
			t.Errorf("expected failure (error)")
			return false
		}
	case nil:
		t.Errorf("expected failure (nil)")
		return false

	default:
		t.Fatalf("unsupported type (%T) for ExpectFailure()", v)
		return false
	}

	return true
}
