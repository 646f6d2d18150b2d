package domain

// SlotName identifies one independently-optional evidence slot of a dispute document.
type SlotName string

const (
	SlotOrderDetails     SlotName = "order_details"
	SlotPaymentProof     SlotName = "payment_proof"
	SlotIdentityProof    SlotName = "identity_proof"
	SlotKYCProof         SlotName = "kyc_proof"
	SlotPublicRecords    SlotName = "public_records_proof"
	SlotShippingProof    SlotName = "shipping_proof"
	SlotLocationProof    SlotName = "location_proof"
	SlotInteractionProof SlotName = "interaction_proof"
	SlotReturnPolicy     SlotName = "return_policy"
)

// SlotOrder is the canonical slot ordering.
var SlotOrder = []SlotName{
	SlotOrderDetails,
	SlotPaymentProof,
	SlotIdentityProof,
	SlotKYCProof,
	SlotPublicRecords,
	SlotShippingProof,
	SlotLocationProof,
	SlotInteractionProof,
	SlotReturnPolicy,
}

// FragmentKind tags the variant held by an EvidenceFragment.
type FragmentKind uint8

const (
	FragmentAbsent FragmentKind = iota
	FragmentNarrative
	FragmentFields
	FragmentArtifact
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentNarrative:
		return "narrative"
	case FragmentFields:
		return "fields"
	case FragmentArtifact:
		return "artifact"
	default:
		return "absent"
	}
}

// Field is one label/value row of structured evidence.
type Field struct {
	Label string
	Value string
}

// Well-known field labels.
const (
	FieldPhoneNumber  = "Phone Number:"
	FieldTrackingLink = "Tracking link"
	FieldCarrier      = "Carrier"
	FieldPolicyURL    = "Policy URL"
	FieldPolicyQuote  = "Policy extract"
)

// ArtifactKind names an externally produced image.
type ArtifactKind string

const (
	ArtifactOrderScreenshot    ArtifactKind = "order_screenshot"
	ArtifactCardDetails        ArtifactKind = "card_details"
	ArtifactAVSDetails         ArtifactKind = "avs_details"
	ArtifactIdentityScreenshot ArtifactKind = "identity_screenshot"
	ArtifactTrackingScreenshot ArtifactKind = "tracking_screenshot"
	ArtifactLocationMap        ArtifactKind = "location_map"
	ArtifactKYCIDCard          ArtifactKind = "kyc_id_card"
	ArtifactKYCSelfie          ArtifactKind = "kyc_selfie"
	ArtifactKYCCard            ArtifactKind = "kyc_card"
	ArtifactReturnPolicy       ArtifactKind = "return_policy"
)

// Artifact references an image on disk. Path may be empty or point at a file
// that no longer exists; the renderer substitutes a placeholder in that case.
type Artifact struct {
	Kind ArtifactKind
	Path string
}

// EvidenceFragment is a tagged union over narrative text, structured fields
// and artifact references. Only the members matching Kind are meaningful.
type EvidenceFragment struct {
	Kind     FragmentKind
	Text     string
	Hint     string
	Fields   []Field
	Artifact Artifact
}

// Narrative builds a narrative fragment. Empty text yields an absent fragment.
func Narrative(text string) EvidenceFragment {
	if text == "" {
		return EvidenceFragment{}
	}
	return EvidenceFragment{Kind: FragmentNarrative, Text: text}
}

// NarrativeWithHint builds a narrative fragment carrying a placeholder hint.
func NarrativeWithHint(text, hint string) EvidenceFragment {
	f := Narrative(text)
	if f.Kind == FragmentNarrative {
		f.Hint = hint
	}
	return f
}

// Fields builds a structured fragment. No rows yields an absent fragment.
func Fields(rows ...Field) EvidenceFragment {
	if len(rows) == 0 {
		return EvidenceFragment{}
	}
	cp := make([]Field, len(rows))
	copy(cp, rows)
	return EvidenceFragment{Kind: FragmentFields, Fields: cp}
}

// ArtifactRef builds an artifact fragment.
func ArtifactRef(kind ArtifactKind, path string) EvidenceFragment {
	return EvidenceFragment{Kind: FragmentArtifact, Artifact: Artifact{Kind: kind, Path: path}}
}

// EvidenceBundle maps slot names to the fragments gathered for them.
// The zero value is an empty bundle ready for use.
type EvidenceBundle struct {
	slots  map[SlotName][]EvidenceFragment
	marked map[SlotName]bool
}

// Mark records that a slot was signalled even though it carries no fragment yet.
func (b *EvidenceBundle) Mark(slot SlotName) {
	if b.marked == nil {
		b.marked = make(map[SlotName]bool)
	}
	b.marked[slot] = true
}

// Attach appends a fragment to a slot. Absent fragments are ignored.
func (b *EvidenceBundle) Attach(slot SlotName, f EvidenceFragment) {
	if f.Kind == FragmentAbsent {
		return
	}
	if b.slots == nil {
		b.slots = make(map[SlotName][]EvidenceFragment)
	}
	b.slots[slot] = append(b.slots[slot], f)
}

// Has reports whether the slot was marked or received a fragment.
func (b EvidenceBundle) Has(slot SlotName) bool {
	return b.marked[slot] || len(b.slots[slot]) > 0
}

// Fragments returns a copy of the slot's fragments in attachment order.
func (b EvidenceBundle) Fragments(slot SlotName) []EvidenceFragment {
	src := b.slots[slot]
	if len(src) == 0 {
		return nil
	}
	out := make([]EvidenceFragment, len(src))
	copy(out, src)
	return out
}

// Narrative returns the first narrative fragment of the slot.
func (b EvidenceBundle) Narrative(slot SlotName) (EvidenceFragment, bool) {
	for _, f := range b.slots[slot] {
		if f.Kind == FragmentNarrative {
			return f, true
		}
	}
	return EvidenceFragment{}, false
}

// Text returns the slot's first narrative text, or "".
func (b EvidenceBundle) Text(slot SlotName) string {
	f, _ := b.Narrative(slot)
	return f.Text
}

// Artifact returns the slot's artifact of the given kind.
func (b EvidenceBundle) Artifact(slot SlotName, kind ArtifactKind) (Artifact, bool) {
	for _, f := range b.slots[slot] {
		if f.Kind == FragmentArtifact && f.Artifact.Kind == kind {
			return f.Artifact, true
		}
	}
	return Artifact{}, false
}

// Artifacts returns every artifact attached to the slot.
func (b EvidenceBundle) Artifacts(slot SlotName) []Artifact {
	var out []Artifact
	for _, f := range b.slots[slot] {
		if f.Kind == FragmentArtifact {
			out = append(out, f.Artifact)
		}
	}
	return out
}

// Fields concatenates the rows of every structured fragment in the slot.
func (b EvidenceBundle) Fields(slot SlotName) []Field {
	var out []Field
	for _, f := range b.slots[slot] {
		if f.Kind == FragmentFields {
			out = append(out, f.Fields...)
		}
	}
	return out
}

// Field looks up a single row by label.
func (b EvidenceBundle) Field(slot SlotName, label string) (string, bool) {
	for _, row := range b.Fields(slot) {
		if row.Label == label {
			return row.Value, true
		}
	}
	return "", false
}

// Slots lists populated slots in canonical order.
func (b EvidenceBundle) Slots() []SlotName {
	out := make([]SlotName, 0, len(b.slots))
	for _, s := range SlotOrder {
		if b.Has(s) {
			out = append(out, s)
		}
	}
	return out
}
