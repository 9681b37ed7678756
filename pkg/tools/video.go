package tools

import (
	"context"
	"time"

	"github.com/go-go-golems/muse/pkg/events"
	"github.com/go-go-golems/muse/pkg/helpers"
)

const (
	CreativeVideoCreatorName = "creative_video_creator"

	// NotAvailable is what the video creator answers until reel compositing
	// exists.
	NotAvailable = "not available"
)

const creativeVideoCreatorDescription = "Use scenes to create a compelling video reel. " +
	"The text overlay of each scene will make up the script of the video. " +
	"Use those text overlays to tell the viewer a story--however short that story may be. " +
	"Remember, you want to be creative but concise. Clever but clear. Trailblazing but relevant. " +
	"Remember, this function is for YOU (THE AGENT) to use. " +
	"Do not ask the user for more information if you can fill in the gaps yourself!"

type Scene struct {
	VideoClip   string `json:"video_clip" jsonschema_description:"short semantic description of the video clip"`
	TextOverlay string `json:"text_overlay" jsonschema_description:"One sentence maximum! One idea per scene. ONE SENTENCE MAXIMUM! Each text overlay helps carry the message of the reel."`
}

type VideoData struct {
	Scenes    []Scene `json:"scenes"`
	MusicClip string  `json:"music_clip" jsonschema_description:"short semantic description of the music clip"`
}

type CreativeVideoArgs struct {
	VideoData   VideoData `json:"video_data"`
	CaptionText string    `json:"caption_text" jsonschema_description:"caption text that elaborates on the ideas presented in the video"`
}

var videoCreatorDelay = 10 * time.Millisecond

// CreativeVideoCreator is the handler for creative_video_creator. Reel
// compositing is not implemented: it always answers NotAvailable.
func CreativeVideoCreator(ctx context.Context, args CreativeVideoArgs) any {
	// the answer does not depend on the wait, so cancellation is ignored
	_ = helpers.Sleep(ctx, videoCreatorDelay)

	events.PublishEventToContext(ctx, events.NewEvent(
		events.EventTypeInfo,
		"video reel compositing is not available",
		map[string]any{
			"scenes":  len(args.VideoData.Scenes),
			"caption": args.CaptionText,
		},
	))

	return NotAvailable
}

func CreativeVideoCreatorDefinition() Definition {
	return NewDefinition[CreativeVideoArgs](CreativeVideoCreatorName, creativeVideoCreatorDescription)
}
