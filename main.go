// Reader demo: one door, one update packet, three lookups, on an in-memory
// 1 MiB medium.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/0xRadioAc7iv/go-flashdir/core"
	"github.com/0xRadioAc7iv/go-flashdir/internal/medium"
	"github.com/0xRadioAc7iv/go-flashdir/internal/record"
	"github.com/0xRadioAc7iv/go-flashdir/internal/update"
)

func main() {
	d, err := core.New(medium.NewMemory(medium.OneMegabyte))
	if err != nil {
		logrus.WithError(err).Fatal("failed to create directory")
	}

	var fob, stranger record.Credential
	fob[0] = 101
	stranger[0] = 100

	receiver := &update.Receiver{Store: d, DoorID: update.DefaultDoorID}
	packet := update.Encode(&update.Packet{
		DoorID:     update.DefaultDoorID,
		Expiry:     1000,
		Credential: fob,
	})

	outcome, err := receiver.Receive(100, packet)
	if err != nil {
		logrus.WithError(err).Error("failed to apply update")
		os.Exit(1)
	}
	fmt.Println("update:", outcome)

	fmt.Println("unlock valid:", d.Check(fob, 10))
	fmt.Println("unlock expired:", d.Check(fob, 10000))
	fmt.Println("unlock not present:", d.Check(stranger, 100))
}
