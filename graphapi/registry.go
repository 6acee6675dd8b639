package graphapi

// The registries below replace per-call-site type switches: extraction,
// rebuild and bypass all consult the same fixed tables. The renderer's node
// schemas change rarely; when they do, only this file changes.

// ParamKind classifies an exposable parameter for the widget layer.
type ParamKind string

const (
	KindInt   ParamKind = "integer"
	KindFloat ParamKind = "float"
	KindSeed  ParamKind = "seed"
	KindEnum  ParamKind = "enum"
	KindBool  ParamKind = "boolean"
	KindText  ParamKind = "text"
	KindImage ParamKind = "image"
	KindVideo ParamKind = "video"
	KindLoRA  ParamKind = "lora"
)

// ParamSpec declares one exposable input of a node type.
type ParamSpec struct {
	Input       string
	Kind        ParamKind
	Label       string
	Default     any
	Min         float64
	Max         float64
	Step        float64
	HasRange    bool
	Options     []string
	Description string

	// WhenPresent limits exposure to nodes that actually carry the input,
	// either as a widget slot or a named value (e.g. denoise).
	WhenPresent bool
}

var samplerNames = []string{
	"euler", "euler_ancestral", "heun", "dpmpp_2m", "dpmpp_2m_sde",
	"dpmpp_3m_sde", "ddim", "uni_pc", "lcm",
}

var schedulerNames = []string{
	"normal", "karras", "exponential", "sgm_uniform", "simple", "beta",
}

func stepsSpec() ParamSpec {
	return ParamSpec{
		Input: "steps", Kind: KindInt, Label: "Steps", Default: 20,
		Min: 1, Max: 150, Step: 1, HasRange: true,
		Description: "Number of denoising steps",
	}
}

func cfgSpec() ParamSpec {
	return ParamSpec{
		Input: "cfg", Kind: KindFloat, Label: "CFG Scale", Default: 7.0,
		Min: 0, Max: 30, Step: 0.1, HasRange: true,
		Description: "Guidance scale",
	}
}

func seedSpec(input string) ParamSpec {
	return ParamSpec{
		Input: input, Kind: KindSeed, Label: "Seed", Default: int64(-1),
		Description: "Sampling seed, -1 for random",
	}
}

func denoiseSpec() ParamSpec {
	return ParamSpec{
		Input: "denoise", Kind: KindFloat, Label: "Denoise", Default: 1.0,
		Min: 0, Max: 1, Step: 0.01, HasRange: true, WhenPresent: true,
		Description: "Denoise strength",
	}
}

func samplerNameSpec() ParamSpec {
	return ParamSpec{
		Input: "sampler_name", Kind: KindEnum, Label: "Sampler",
		Default: "euler", Options: samplerNames,
	}
}

func schedulerSpec() ParamSpec {
	return ParamSpec{
		Input: "scheduler", Kind: KindEnum, Label: "Scheduler",
		Default: "normal", Options: schedulerNames,
	}
}

func dimensionSpec(input, label string) ParamSpec {
	return ParamSpec{
		Input: input, Kind: KindInt, Label: label, Default: 1024,
		Min: 64, Max: 2048, Step: 64, HasRange: true,
	}
}

// paramRegistry maps node type to its exposable parameter signatures.
var paramRegistry = map[string][]ParamSpec{
	"KSampler": {
		seedSpec("seed"), stepsSpec(), cfgSpec(),
		samplerNameSpec(), schedulerSpec(), denoiseSpec(),
	},
	"KSamplerAdvanced": {
		seedSpec("noise_seed"), stepsSpec(), cfgSpec(),
		samplerNameSpec(), schedulerSpec(),
	},
	"SamplerCustom": {
		seedSpec("noise_seed"), cfgSpec(),
	},
	// the integrated sampler carries its prompts and mode alongside the
	// usual sampling controls
	"UnifiedSampler": {
		{Input: "positive_prompt", Kind: KindText, Label: "Prompt", Default: ""},
		{Input: "negative_prompt", Kind: KindText, Label: "Negative Prompt", Default: ""},
		{Input: "mode", Kind: KindEnum, Label: "Mode", Default: "txt2img",
			Options: []string{"txt2img", "img2img", "inpaint"}},
		seedSpec("seed"), stepsSpec(), denoiseSpec(), cfgSpec(),
		samplerNameSpec(), schedulerSpec(),
	},
	"EmptyLatentImage": {
		dimensionSpec("width", "Width"), dimensionSpec("height", "Height"),
		{Input: "batch_size", Kind: KindInt, Label: "Batch Size", Default: 1,
			Min: 1, Max: 64, Step: 1, HasRange: true},
	},
	"EmptySD3LatentImage": {
		dimensionSpec("width", "Width"), dimensionSpec("height", "Height"),
		{Input: "batch_size", Kind: KindInt, Label: "Batch Size", Default: 1,
			Min: 1, Max: 64, Step: 1, HasRange: true},
	},
	"CheckpointLoaderSimple": {
		{Input: "ckpt_name", Kind: KindEnum, Label: "Checkpoint", Default: "",
			Description: "Checkpoint model file"},
	},
}

// widgetOrder mirrors the renderer's per-type widget schema: the names of
// positional widget values, by index. Shared by normalization-adjacent
// decoding, extraction and rebuild; never duplicated per call site.
var widgetOrder = map[string][]string{
	"KSampler": {
		"seed", "control_after_generate", "steps", "cfg",
		"sampler_name", "scheduler", "denoise",
	},
	"KSamplerAdvanced": {
		"add_noise", "noise_seed", "control_after_generate", "steps", "cfg",
		"sampler_name", "scheduler", "start_at_step", "end_at_step",
		"return_with_leftover_noise",
	},
	"SamplerCustom": {
		"add_noise", "noise_seed", "control_after_generate", "cfg",
	},
	"UnifiedSampler": {
		"positive_prompt", "negative_prompt", "mode", "seed",
		"control_after_generate", "steps", "denoise", "cfg",
		"sampler_name", "scheduler",
	},
	"EmptyLatentImage":    {"width", "height", "batch_size"},
	"EmptySD3LatentImage": {"width", "height", "batch_size"},
	"CLIPTextEncode":      {"text"},
	"CLIPTextEncodeSDXL": {
		"width", "height", "crop_w", "crop_h", "target_width",
		"target_height", "text_g", "text_l",
	},
	"CheckpointLoaderSimple": {"ckpt_name"},
	"VAELoader":              {"vae_name"},
	"LoraLoader":             {"lora_name", "strength_model", "strength_clip"},
	"LoraLoaderModelOnly":    {"lora_name", "strength_model"},
	"LoadImage":              {"image", "upload"},
	"LoadImageMask":          {"image", "channel", "upload"},
	"VHS_LoadVideo": {
		"video", "force_rate", "custom_width", "custom_height",
		"frame_load_cap", "skip_first_frames", "select_every_nth",
	},
	"SaveImage": {"filename_prefix"},
	"VHS_VideoCombine": {
		"frame_rate", "loop_count", "filename_prefix", "format",
		"pingpong", "save_output",
	},
	"CLIPSetLastLayer": {"stop_at_clip_layer"},
	"ModelSamplingSD3": {"shift"},
	"FreeU_V2":         {"b1", "b2", "s1", "s2"},
}

// frontendWidgets are widget slots the editor adds for its own UI; they have
// no corresponding named input and must never reach the renderer.
var frontendWidgets = map[string]bool{
	"control_after_generate":  true,
	"control_before_generate": true,
	"upload":                  true,
	"choose file to upload":   true,
}

// WidgetOrder returns the positional widget names for a node type, or nil
// when the type has no widget schema in the registry.
func WidgetOrder(nodeType string) []string {
	return widgetOrder[nodeType]
}

func widgetIndex(nodeType, input string) int {
	for i, name := range widgetOrder[nodeType] {
		if name == input {
			return i
		}
	}
	return -1
}

// LoRASpec declares the input names of a LoRA loader family member. An empty
// StrengthClipInput marks a model-only loader.
type LoRASpec struct {
	NameInput          string
	StrengthModelInput string
	StrengthClipInput  string
}

var loraRegistry = map[string]LoRASpec{
	"LoraLoader":          {NameInput: "lora_name", StrengthModelInput: "strength_model", StrengthClipInput: "strength_clip"},
	"LoraLoaderModelOnly": {NameInput: "lora_name", StrengthModelInput: "strength_model"},
}

// MediaSpec declares the asset-reference input of a media loader.
type MediaSpec struct {
	Input string
	Kind  ParamKind
	Label string
}

var mediaRegistry = map[string]MediaSpec{
	"LoadImage":     {Input: "image", Kind: KindImage, Label: "Image"},
	"LoadImageMask": {Input: "image", Kind: KindImage, Label: "Mask"},
	"VHS_LoadVideo": {Input: "video", Kind: KindVideo, Label: "Video"},
}

// OutputSpec declares an output/save node.
type OutputSpec struct {
	Kind  string
	Label string
}

var outputRegistry = map[string]OutputSpec{
	"SaveImage":        {Kind: "image", Label: "Save Image"},
	"PreviewImage":     {Kind: "preview", Label: "Preview Image"},
	"VHS_VideoCombine": {Kind: "video", Label: "Video Combine"},
}

// promptTextInputs maps text-bearing node types to their text input name,
// for prompt role classification.
var promptTextInputs = map[string]string{
	"CLIPTextEncode":     "text",
	"CLIPTextEncodeSDXL": "text_g",
}

// passThroughSlots gives the slot-to-input-name convention the bypass
// resolver uses to see through a disabled node: output slot i of a disabled
// node is satisfied by that node's own input named passThroughSlots[type][i].
// Only families with confirmed renderer bypass semantics are listed; anything
// else fails resolution and falls to the required/optional rule.
var passThroughSlots = map[string][]string{
	"LoraLoader":          {"model", "clip"},
	"LoraLoaderModelOnly": {"model"},
	"ModelSamplingSD3":    {"model"},
	"FreeU_V2":            {"model"},
	"CLIPSetLastLayer":    {"clip"},
}

// requiredInputs lists the edge inputs a node cannot execute without. Types
// absent from the table treat every wired input as required.
var requiredInputs = map[string][]string{
	"KSampler":            {"model", "positive", "negative", "latent_image"},
	"KSamplerAdvanced":    {"model", "positive", "negative", "latent_image"},
	"SamplerCustom":       {"model", "positive", "negative", "latent_image"},
	"UnifiedSampler":      {"model"},
	"CLIPTextEncode":      {"clip"},
	"CLIPTextEncodeSDXL":  {"clip"},
	"LoraLoader":          {"model", "clip"},
	"LoraLoaderModelOnly": {"model"},
	"VAEDecode":           {"samples", "vae"},
	"VAEEncode":           {"pixels", "vae"},
	"SaveImage":           {"images"},
	"PreviewImage":        {"images"},
	"VHS_VideoCombine":    {"images"},
	"LatentUpscale":       {"samples"},
	"ImageScale":          {"image"},
}

// InputRequired reports whether losing the named input makes the node
// non-executable.
func InputRequired(nodeType, input string) bool {
	req, ok := requiredInputs[nodeType]
	if !ok {
		return true
	}
	for _, r := range req {
		if r == input {
			return true
		}
	}
	return false
}

// presentationTypes never reach the renderer regardless of disabled state:
// annotations, passthrough markers and editor-only value nodes.
var presentationTypes = map[string]bool{
	"Note":          true,
	"MarkdownNote":  true,
	"Reroute":       true,
	"PrimitiveNode": true,
}

// IsPresentation reports whether a node type is presentation-only.
func IsPresentation(nodeType string) bool {
	return presentationTypes[nodeType]
}
