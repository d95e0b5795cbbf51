package prompts

const combinedInstructions = `You are a comic page illustrator producing one complete, finished page.

Render the page described below as a single full-bleed comic page:
- Follow the panel descriptions and story beats exactly as written
- Letter every quoted dialogue line into a speech bubble assigned to its speaker
- Keep captions and sound effects legible and consistently styled
- Match every named character and location to its attached reference image`

const artPhaseInstructions = `You are a comic page illustrator producing the art pass of a page. Lettering is added in a later pass.

Render the page described below as a single full-bleed comic page:
- Follow the panel descriptions and story beats exactly as written
- Do NOT draw round speech bubbles or balloon tails of any kind
- Rectangular caption boxes and drawn sound effects are permitted
- Leave clear negative space where dialogue bubbles will be placed later
- Match every named character and location to its attached reference image`

const letteringPhaseInstructions = `You are a comic letterer finishing a page. The attached base artwork is the approved art pass for this page.

Produce the finished page on top of the base artwork:
- Preserve the base composition, characters, and backgrounds exactly
- Add a speech bubble for every line in the dialogue checklist, verbatim, assigned to its speaker
- Place bubbles in the negative space left for them; never cover faces
- Keep lettering legible at print size`

const colorDirective = `Render in full color with consistent palette and lighting across panels.`

const monochromeDirective = `Render in black and white manga style: clean ink lines and screentone shading, no color.`

const reviewInstructions = `You are a strict comic page quality reviewer. The FIRST attached image is the candidate page. Every following image is a reference, in the order given by the reference table below.

Score the candidate from 0 to 100 on each dimension:
- "likeness": every named character and location matches its reference image
- "continuity": style, costume, and environment are consistent with the previous page artwork when one is attached
- "lettering": %s
- "story": the drawn action matches the page script; nothing added, nothing dropped

Respond with ONLY a JSON object:
{"likeness": 0-100, "continuity": 0-100, "lettering": 0-100, "story": 0-100, "total": 0-400, "reason": "one concise sentence naming the worst defect", "pass": true|false}`

const reviewLetteringRubric = `every dialogue checklist line appears verbatim in a legible, correctly assigned speech bubble`

const reviewNoBubblesRubric = `the page contains NO round speech bubbles (rectangular captions and sound effects are acceptable); score 0 if any bubble is present`

const baselineReferenceInstructions = `You are a character designer producing a model sheet.

Draw a single reference sheet for the subject described below:
- Black and white manga style: clean ink lines, no color
- Neutral standing pose, full body, front view, plain white background
- No text, no labels, no panel borders`

const colorReferenceInstructions = `You are a character designer colorizing an approved model sheet. The attached image is the approved monochrome reference.

Produce the color version of the same sheet:
- Preserve the line art, pose, and proportions exactly
- Apply a consistent palette appropriate to the description
- Plain white background, no text, no labels`
