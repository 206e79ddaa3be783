package models

// Artifact documents returned by the subservices. The gateway never looks
// inside them; they are used by the stub subservice.

// Scene is one shot of a storyboard.
type Scene struct {
	SceneTitle string `json:"scene_title" doc:"Scene title"`
	Prompt     string `json:"prompt" doc:"Image prompt for the scene"`
	Narration  string `json:"narration" doc:"Narration read over the scene"`
	Transition string `json:"transition" example:"fade-in" doc:"Transition into the next scene"`
}

// Storyboard is the document produced by the llm subservice.
type Storyboard struct {
	ID            string  `json:"id" doc:"Storyboard identifier"`
	CreateTime    string  `json:"create_time" doc:"Creation time (RFC 3339)"`
	RawStory      string  `json:"raw_story" doc:"Story text the storyboard was built from"`
	Style         string  `json:"style" doc:"Requested style"`
	BGMSuggestion string  `json:"bgm_suggestion" doc:"Adjectives describing the mood for background music"`
	Scenes        []Scene `json:"scenes" doc:"Scenes in playback order"`
}

type ImageArtifact struct {
	ImageURL string `json:"image_url" example:"/files/image/img_1718000000_1a2b3c4d.png" doc:"Location of the generated image"`
}

type AudioArtifact struct {
	AudioURL string `json:"audio_url" example:"/files/audio/tts_1718000000_1a2b3c4d.wav" doc:"Location of the generated speech"`
}

type VideoArtifact struct {
	VideoURL string `json:"video_url" example:"/files/video/vid_1718000000_1a2b3c4d.mp4" doc:"Location of the generated video"`
}

// Subservice endpoint
// POST Path: "/generate"

type SubserviceRequest struct {
	ContentType string `header:"Content-Type" doc:"application/x-www-form-urlencoded or multipart/form-data"`
	RawBody     []byte `contentType:"application/x-www-form-urlencoded"`
}

type SubserviceResponse struct {
	Body any
}
