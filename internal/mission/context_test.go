package mission

import (
	"sync"
	"testing"

	"github.com/OCAP2/orbat/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestContext_Defaults(t *testing.T) {
	ctx := NewContext()

	assert.Equal(t, "No battle loaded", ctx.GetBattle().Name)
	assert.Zero(t, ctx.Frame())
}

func TestContext_SetBattleResetsFrame(t *testing.T) {
	ctx := NewContext()
	ctx.Advance()
	ctx.Advance()

	ctx.SetBattle(&core.Battle{Name: "Kursk", Tick: 0.5})

	assert.Equal(t, "Kursk", ctx.GetBattle().Name)
	assert.Zero(t, ctx.Frame())
}

func TestContext_ThreadSafe(t *testing.T) {
	ctx := NewContext()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				ctx.Advance()
				_ = ctx.GetBattle()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(800), ctx.Frame())
}
