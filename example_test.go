package webtri_test

import (
	"fmt"

	"github.com/webtri/webtri"
	"github.com/webtri/webtri/backend"
	_ "github.com/webtri/webtri/backend/software"
)

func Example() {
	win, err := backend.OpenByName("software", backend.Options{Width: 64, Height: 64})
	if err != nil {
		fmt.Println(err)
		return
	}
	scene, err := webtri.New(win)
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := scene.Draw(); err != nil {
		fmt.Println(err)
		return
	}
	img, err := scene.Snapshot()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(img.RGBAAt(32, 32), img.RGBAAt(0, 0))
	// Output: {255 0 0 255} {0 0 0 255}
}
