/*
Copyright © 2026 the AquaNova authors.
This file is part of AquaNova.

AquaNova is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AquaNova is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AquaNova.  If not, see <http://www.gnu.org/licenses/>.
*/

package aquanova

import "errors"

var (
	// ErrInvalidFeed is returned when the feed stream is missing a
	// required property or has one out of range.
	ErrInvalidFeed = errors.New("aquanova: invalid feed")

	// ErrNoStages is returned when a request has no stages.
	ErrNoStages = errors.New("aquanova: no stages")
)
