// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding_test

import (
	"fmt"
	"log"

	"github.com/unixdj/qrbrand/coding"
)

func ExampleBuildText() {
	m, err := coding.BuildText("HELLO", 1, coding.UTF8)
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Println(m.Size(), m.Capacity(), m.Embedded(), m.Truncated())
	fmt.Println(m.Cell(0, 0), m.Cell(1, 1), m.Cell(20, 20))
	fmt.Printf("%s\n", m.Payload())
	// Output:
	// 21 257 40 false
	// structural empty empty
	// HELLO
}
