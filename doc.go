// Package glshim implements a classic immediate-mode GL-style rendering API
// on top of an explicit GPU command API.
//
// Client code keeps the familiar state-machine model: integer object names,
// bind-to-edit semantics, deferred polled errors, std140 uniform layout and
// framebuffer completeness rules. Underneath, every call is translated into
// explicit command-buffer recording, fenced triple buffering and descriptor
// updates through a pluggable Driver.
//
// A Context is not a process-wide global. Every entry point is a method on
// an explicit *Context, and a Context must be driven from a single goroutine
// at a time. The concurrency that does exist is between the CPU recording a
// frame and the GPU executing previously submitted frames; the driver layer
// fences that internally.
//
// Basic usage:
//
//	drv := backend.Default()
//	ctx, err := glshim.NewContext(drv)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Destroy()
//
//	ctx.ClearColor(0.5, 0.25, 0.125, 1)
//	ctx.Clear(glshim.ColorBufferBit)
//	ctx.SwapBuffers()
//
// Concrete drivers live under backend/; see backend/wgpu for the GPU driver
// and backend/noop for the headless recording driver used in tests.
package glshim
