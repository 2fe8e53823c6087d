// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accumulator

import "errors"

var errNoPrimeFound = errors.New("accumulator: no prime found within attempt budget")
