// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

package native

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

var vertexFormats = [...]gputypes.VertexFormat{
	1: gputypes.VertexFormatFloat32,
	2: gputypes.VertexFormatFloat32x2,
	3: gputypes.VertexFormatFloat32x3,
	4: gputypes.VertexFormatFloat32x4,
}

// vertexSlot is one enabled attribute array bound to its own vertex buffer
// slot.
type vertexSlot struct {
	buf    *buffer
	offset int
}

// vertexState maps the enabled attribute arrays to vertex buffer layouts.
// The key identifies the layout for pipeline caching.
func (c *Context) vertexState() (string, []gputypes.VertexBufferLayout, []vertexSlot) {
	var (
		key     strings.Builder
		layouts []gputypes.VertexBufferLayout
		slots   []vertexSlot
	)
	for i, a := range c.attribs {
		if !a.enabled {
			continue
		}
		stride := a.effectiveStride()
		fmt.Fprintf(&key, "%d:%dx%d;", i, a.size, stride)
		layouts = append(layouts, gputypes.VertexBufferLayout{
			ArrayStride: uint64(stride),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: vertexFormats[a.size], Offset: 0, ShaderLocation: uint32(i)},
			},
		})
		slots = append(slots, vertexSlot{buf: a.buf, offset: a.offset})
	}
	return key.String(), layouts, slots
}

// pipeline returns the render pipeline of p for a vertex layout, creating
// it on first use.
func (c *Context) pipeline(p *program, key string, layouts []gputypes.VertexBufferLayout) (hal.RenderPipeline, error) {
	if pipe, ok := p.pipelines[key]; ok {
		return pipe, nil
	}
	pipe, err := c.dev.Device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "webtri_pipeline_" + strconv.Itoa(len(p.pipelines)),
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.vsModule,
			EntryPoint: p.vsEntry,
			Buffers:    layouts,
		},
		Fragment: &hal.FragmentState{
			Module:     p.fsModule,
			EntryPoint: p.fsEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    targetFormat,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	p.pipelines[key] = pipe
	return pipe, nil
}

// submit records one command buffer, submits it and waits for the GPU.
func (c *Context) submit(label string, record func(enc hal.CommandEncoder) error) error {
	d := c.dev.Device
	enc, err := d.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	if err := record(enc); err != nil {
		enc.DiscardEncoding()
		return err
	}
	cmdBuf, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.FreeCommandBuffer(cmdBuf)

	fence, err := d.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.DestroyFence(fence)

	if err := c.dev.Queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := d.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !ok {
		return errors.New("wait for GPU: timed out")
	}
	return nil
}

func (c *Context) clearPass(col gputypes.Color) error {
	return c.submit("webtri_clear", func(enc hal.CommandEncoder) error {
		rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "webtri_clear_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       c.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: col,
			}},
		})
		rp.End()
		return nil
	})
}

func (c *Context) drawPass(p *program, first, count int) error {
	key, layouts, slots := c.vertexState()
	pipe, err := c.pipeline(p, key, layouts)
	if err != nil {
		return err
	}
	return c.submit("webtri_draw", func(enc hal.CommandEncoder) error {
		rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "webtri_draw_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:    c.view,
				LoadOp:  gputypes.LoadOpLoad,
				StoreOp: gputypes.StoreOpStore,
			}},
		})
		rp.SetPipeline(pipe)
		for i, s := range slots {
			rp.SetVertexBuffer(uint32(i), s.buf.gpu, uint64(s.offset))
		}
		rp.Draw(uint32(count), 1, uint32(first), 0)
		rp.End()
		return nil
	})
}

// readback copies the whole render target to the CPU as RGBA, top row
// first.
func (c *Context) readback() (*image.RGBA, error) {
	w, h := c.width, c.height
	bytesPerRow := w * 4
	aligned := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	size := uint64(aligned) * uint64(h)

	d := c.dev.Device
	staging, err := d.CreateBuffer(&hal.BufferDescriptor{
		Label: "webtri_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create staging buffer: %w", err)
	}
	defer d.DestroyBuffer(staging)

	err = c.submit("webtri_readback", func(enc hal.CommandEncoder) error {
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: c.target,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		enc.CopyTextureToBuffer(c.target, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: aligned, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: c.target, MipLevel: 0},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: c.target,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("native: readback: %w", err)
	}

	data := make([]byte, size)
	if err := c.dev.Queue.ReadBuffer(staging, 0, data); err != nil {
		return nil, fmt.Errorf("native: read staging buffer: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	unpackBGRA(img, data, int(aligned))
	return img, nil
}

// unpackBGRA copies padded BGRA rows into img, swapping red and blue.
func unpackBGRA(img *image.RGBA, src []byte, pitch int) {
	width := img.Rect.Dx()
	for y := range img.Rect.Dy() {
		row := src[y*pitch : y*pitch+width*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < len(row); x += 4 {
			dst[x+0] = row[x+2]
			dst[x+1] = row[x+1]
			dst[x+2] = row[x+0]
			dst[x+3] = row[x+3]
		}
	}
}
