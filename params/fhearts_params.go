// Copyright 2024 The gtos Authors
// This file is part of the gtos library.
//
// The gtos library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The gtos library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the gtos library. If not, see <http://www.gnu.org/licenses/>.

package params

import (
	"github.com/Hazem-dh/FHEarts/common"
)

// System accounts. Each component keeps its state in the storage slots of
// its own well-known address.
var (
	// EngineAddress is the principal input proofs are bound to and the
	// emitter of engine events.
	EngineAddress = common.HexToAddress("0x0000000000000000000000000000000046484530") // "FHE0"

	// RegistryAddress stores the identity <-> slot bijection and active flags.
	RegistryAddress = common.HexToAddress("0x0000000000000000000000000000000046484531") // "FHE1"

	// ProfileAddress stores the encrypted attribute vectors.
	ProfileAddress = common.HexToAddress("0x0000000000000000000000000000000046484532") // "FHE2"

	// MatchAddress stores match records and in-progress search state.
	MatchAddress = common.HexToAddress("0x0000000000000000000000000000000046484533") // "FHE3"

	// ConsentAddress stores the confirmation and phone-consent relations.
	ConsentAddress = common.HexToAddress("0x0000000000000000000000000000000046484534") // "FHE4"

	// ACLAddress stores the decrypt grant table.
	ACLAddress = common.HexToAddress("0x0000000000000000000000000000000046484535") // "FHE5"

	// NonceAddress stores per-identity operation nonces.
	NonceAddress = common.HexToAddress("0x0000000000000000000000000000000046484536") // "FHE6"
)
