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

package curated_test

import (
	"errors"
	"testing"

	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/test"
)

const testError = "test error: %v"
const testErrorB = "test error B: %v"

func TestDuplicateNormalisation(t *testing.T) {
	// an error wrapped in itself should not repeat the message
	inner := curated.Errorf(testError, "inner")
	outer := curated.Errorf(testError, inner)
	test.ExpectEquality(t, outer.Error(), "test error: inner")
}

func TestIs(t *testing.T) {
	err := curated.Errorf(testError, "detail")
	test.ExpectSuccess(t, curated.Is(err, testError))
	test.ExpectFailure(t, curated.Is(err, testErrorB))
	test.ExpectFailure(t, curated.Is(nil, testError))

	// plain errors are not curated
	plain := errors.New("plain")
	test.ExpectFailure(t, curated.IsAny(plain))
	test.ExpectFailure(t, curated.Is(plain, testError))
}

func TestHas(t *testing.T) {
	inner := curated.Errorf(testErrorB, "inner")
	outer := curated.Errorf(testError, inner)

	test.ExpectSuccess(t, curated.Has(outer, testError))
	test.ExpectSuccess(t, curated.Has(outer, testErrorB))
	test.ExpectFailure(t, curated.Has(inner, testError))
}
