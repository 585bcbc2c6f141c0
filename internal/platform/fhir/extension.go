package fhir

// Extension helpers operate on resource maps without mutating them. Builders
// store extensions as []Extension; responses decoded from JSON carry them as
// []interface{}. Both shapes are handled so batch re-injection stays
// idempotent across a build/serialize/parse cycle.

// Extensions returns the typed extension slice of a resource map. Decoded
// generic slices are converted element by element; elements that are not
// extension objects are skipped.
func Extensions(resource map[string]interface{}) []Extension {
	raw, ok := resource["extension"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []Extension:
		return v
	case []interface{}:
		out := make([]Extension, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			out = append(out, extensionFromMap(m))
		}
		return out
	}
	return nil
}

// FindExtension returns the first extension with the given url.
func FindExtension(resource map[string]interface{}, url string) (Extension, bool) {
	for _, ext := range Extensions(resource) {
		if ext.URL == url {
			return ext, true
		}
	}
	return Extension{}, false
}

// WithoutExtensions returns a shallow copy of resource whose extension list
// omits every extension matching one of the given urls. The input map is not
// modified.
func WithoutExtensions(resource map[string]interface{}, urls ...string) map[string]interface{} {
	drop := make(map[string]bool, len(urls))
	for _, u := range urls {
		drop[u] = true
	}
	kept := make([]Extension, 0)
	for _, ext := range Extensions(resource) {
		if !drop[ext.URL] {
			kept = append(kept, ext)
		}
	}
	out := copyResource(resource)
	if len(kept) == 0 {
		delete(out, "extension")
	} else {
		out["extension"] = kept
	}
	return out
}

// WithExtensions returns a shallow copy of resource with the given extensions
// appended after any existing ones. The input map is not modified.
func WithExtensions(resource map[string]interface{}, exts ...Extension) map[string]interface{} {
	existing := Extensions(resource)
	merged := make([]Extension, 0, len(existing)+len(exts))
	merged = append(merged, existing...)
	merged = append(merged, exts...)
	out := copyResource(resource)
	out["extension"] = merged
	return out
}

func copyResource(resource map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(resource))
	for k, v := range resource {
		out[k] = v
	}
	return out
}

func extensionFromMap(m map[string]interface{}) Extension {
	ext := Extension{}
	ext.URL, _ = m["url"].(string)
	ext.ValueString, _ = m["valueString"].(string)
	ext.ValueCode, _ = m["valueCode"].(string)
	ext.ValueDate, _ = m["valueDate"].(string)
	ext.ValueDateTime, _ = m["valueDateTime"].(string)
	if b, ok := m["valueBoolean"].(bool); ok {
		ext.ValueBoolean = &b
	}
	// JSON numbers decode as float64.
	if f, ok := m["valueInteger"].(float64); ok {
		i := int(f)
		ext.ValueInteger = &i
	}
	if f, ok := m["valueDecimal"].(float64); ok {
		ext.ValueDecimal = &f
	}
	if id, ok := m["valueIdentifier"].(map[string]interface{}); ok {
		system, _ := id["system"].(string)
		value, _ := id["value"].(string)
		ext.ValueIdentifier = &Identifier{System: system, Value: value}
	}
	if mv, ok := m["valueMoney"].(map[string]interface{}); ok {
		value, _ := mv["value"].(float64)
		currency, _ := mv["currency"].(string)
		ext.ValueMoney = &Money{Value: value, Currency: currency}
	}
	if q, ok := m["valueQuantity"].(map[string]interface{}); ok {
		value, _ := q["value"].(float64)
		unit, _ := q["unit"].(string)
		system, _ := q["system"].(string)
		code, _ := q["code"].(string)
		ext.ValueQuantity = &Quantity{Value: value, Unit: unit, System: system, Code: code}
	}
	if cc, ok := m["valueCodeableConcept"].(map[string]interface{}); ok {
		ext.ValueCodeableConcept = codeableConceptFromMap(cc)
	}
	if p, ok := m["valuePeriod"].(map[string]interface{}); ok {
		start, _ := p["start"].(string)
		end, _ := p["end"].(string)
		ext.ValuePeriod = &Period{Start: start, End: end}
	}
	if r, ok := m["valueReference"].(map[string]interface{}); ok {
		ref, _ := r["reference"].(string)
		display, _ := r["display"].(string)
		ext.ValueReference = &Reference{Reference: ref, Display: display}
	}
	return ext
}

func codeableConceptFromMap(m map[string]interface{}) *CodeableConcept {
	cc := &CodeableConcept{}
	cc.Text, _ = m["text"].(string)
	if codings, ok := m["coding"].([]interface{}); ok {
		for _, c := range codings {
			cm, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			system, _ := cm["system"].(string)
			code, _ := cm["code"].(string)
			display, _ := cm["display"].(string)
			cc.Coding = append(cc.Coding, Coding{System: system, Code: code, Display: display})
		}
	}
	return cc
}
