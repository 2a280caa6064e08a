package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/personality"
	"github.com/sayu/sayu-backend/internal/vector"
)

const seed = 20240101

// letterVectors gives each axis letter a fixed random direction. Archetypes are built
// from the four letters of their code, so types sharing letters lie close together.
func letterVectors(dim int) map[personality.Axis]vector.Vector {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make(map[personality.Axis]vector.Vector, len(personality.Axes))
	for _, a := range personality.Axes {
		v := make(vector.Vector, dim)
		for i := range v {
			v[i] = float32(rng.NormFloat64())
		}
		out[a] = v
	}
	return out
}

// archetypeVectors returns a unit vector per type code.
func archetypeVectors(dim int) map[personality.TypeCode]vector.Vector {
	letters := letterVectors(dim)
	out := make(map[personality.TypeCode]vector.Vector, 16)
	for _, code := range personality.AllTypeCodes() {
		sum := make(vector.Vector, dim)
		for i := 0; i < len(code); i++ {
			for j, x := range letters[personality.Axis(code[i:i+1])] {
				sum[j] += x
			}
		}
		out[code] = vector.Normalize(sum)
	}
	return out
}

var styleTags = []string{"impressionism", "abstract", "minimalism", "surrealism", "portrait", "landscape", "installation", "photography"}

// sampleContent places perType items of each kind around every archetype.
func sampleContent(archetypes map[personality.TypeCode]vector.Vector, perType int) []model.ContentVector {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	var out []model.ContentVector
	for _, code := range personality.AllTypeCodes() {
		base := archetypes[code]
		for _, kind := range []model.ContentKind{model.ContentKindArtwork, model.ContentKindExhibition} {
			for n := 0; n < perType; n++ {
				v := make(vector.Vector, len(base))
				for i, x := range base {
					v[i] = x + float32(rng.NormFloat64()*0.02)
				}
				id := fmt.Sprintf("%s-%s-%02d", kind, code, n+1)
				out = append(out, model.ContentVector{
					ItemID: id,
					Kind:   kind,
					Vector: vector.Normalize(v),
					Metadata: model.ContentMetadata{
						Title:              fmt.Sprintf("Sample %s %d for %s", kind, n+1, code),
						CreatorID:          fmt.Sprintf("creator-%02d", rng.IntN(20)+1),
						StyleTags:          []string{styleTags[rng.IntN(len(styleTags))]},
						AbstractionLevel:   rng.Float64(),
						EmotionalIntensity: rng.Float64(),
					},
				})
			}
		}
	}
	return out
}

// demoUser is a seeded user with a profile and a matching signal.
type demoUser struct {
	signal   model.CandidateSignal
	typeCode personality.TypeCode
}

// demoUsers returns one available user per type code scattered around Seoul.
func demoUsers() []demoUser {
	rng := rand.New(rand.NewPCG(seed, seed+2))
	genders := []string{"female", "male"}
	var out []demoUser
	for i, code := range personality.AllTypeCodes() {
		out = append(out, demoUser{
			typeCode: code,
			signal: model.CandidateSignal{
				UserID:    fmt.Sprintf("demo-%02d", i+1),
				Age:       20 + rng.IntN(40),
				Gender:    genders[i%2],
				Languages: []string{"korean"},
				Location: model.Coordinates{
					Lat: 37.5665 + (rng.Float64()-0.5)*0.3,
					Lng: 126.9780 + (rng.Float64()-0.5)*0.3,
				},
			},
		})
	}
	return out
}
