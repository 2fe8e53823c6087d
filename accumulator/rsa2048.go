// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accumulator

import "math/big"

// rsa2048Modulus is the RSA Factoring Challenge's RSA-2048 number. Nobody
// has published its factorization; an accumulator built on it is sound
// as long as that remains true. Matches
// original_source/wnfs-nameaccumulator/src/name.rs's RSA_2048 constant.
const rsa2048Modulus = "25195908475657893494027183240048398571429282126204032027777137836043662020707595556264018525880784406918290641249515082189298559149176184502808489120072844992687392807287776735971418347270261896375014971824691165077613379859095700097330459748808428401797429100642458691817195118746121515172654632282216869987549182422433637259085141865462043576798423387184774447920739934236584823824281198163815010674810451660377306056201619676256133844143603833904414952634432190114657544454178424020924616515723350778707749817125772467962926386356373289912154831438167899885040445364023527381951378636564391212010397122822120720357"

func rsa2048() *big.Int {
	n, ok := new(big.Int).SetString(rsa2048Modulus, 10)
	if !ok {
		panic("accumulator: malformed RSA-2048 modulus constant")
	}
	return n
}
