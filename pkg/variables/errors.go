// SPDX-License-Identifier: BSD-3-Clause

package variables

import "errors"

var (
	// ErrUndefinedVariable indicates a read/update targeted a name with no slot.
	ErrUndefinedVariable = errors.New("undefined variable")
	// ErrConstant indicates an update was attempted on a constant (nameless) variable.
	ErrConstant = errors.New("variable is constant")
)
