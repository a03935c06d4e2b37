package asset

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/FyrbyAdditive/OCCT-Metal-sub000/log"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/scene"
	"github.com/FyrbyAdditive/OCCT-Metal-sub000/types"
)

// Identifies a unique vertex: a position and an optional texture
// coordinate (-1 when absent).
type vertexKey struct {
	pos, uv int
}

type wavefrontReader struct {
	logger log.Logger

	scene *Scene

	// A map of material names to material index.
	matNameToIndex map[string]int32

	// Currently selected material index.
	curMaterial int32

	// Positions and uv coords as listed in the file.
	positions []types.Vec3
	uvs       []types.Vec2
	normals   int

	// Maps position/uv pairs to the emitted vertex.
	vertexIndex map[vertexKey]uint32

	diffuseTextures *TextureArray
	normalTextures  *TextureArray

	cameraDefined bool

	// An error stack that provides additional error information when
	// scene files include other files (models, material libs e.t.c)
	errStack []string
}

func newWavefrontReader() *wavefrontReader {
	return &wavefrontReader{
		logger:          log.New("wavefront reader"),
		scene:           &Scene{Camera: DefaultCamera()},
		matNameToIndex:  make(map[string]int32),
		curMaterial:     -1,
		vertexIndex:     make(map[vertexKey]uint32),
		diffuseTextures: NewTextureArray("diffuse textures"),
		normalTextures:  NewTextureArray("normal textures"),
	}
}

// Read a wavefront OBJ scene and any material libraries it references.
func ReadWavefront(res *Resource) (*Scene, error) {
	return newWavefrontReader().Read(res)
}

// Read scene definition.
func (r *wavefrontReader) Read(res *Resource) (*Scene, error) {
	r.logger.Noticef("parsing scene from %s", res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}
	if r.scene.TriangleCount() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoGeometry, res.Path())
	}

	r.scene.DiffuseTextures = r.diffuseTextures.Build()
	r.scene.NormalTextures = r.normalTextures.Build()
	if !r.cameraDefined {
		r.fitCamera()
	}

	r.logger.Noticef(
		"parsed scene in %d ms: %d vertices, %d triangles, %d materials, %d lights, %d diffuse and %d normal textures",
		time.Since(start).Nanoseconds()/1e6,
		r.scene.VertexCount(),
		r.scene.TriangleCount(),
		len(r.scene.Materials),
		len(r.scene.Lights),
		r.diffuseTextures.Len(),
		r.normalTextures.Len(),
	)
	if r.normals > 0 {
		r.logger.Debugf("ignored %d vertex normals; shading uses geometric normals", r.normals)
	}
	return r.scene, nil
}

// Place the default camera so that it frames the scene bounds.
func (r *wavefrontReader) fitCamera() {
	min, max := r.scene.Bounds()
	center := min.Add(max).Mul(0.5)
	radius := max.Sub(min).Len() * 0.5

	cam := r.scene.Camera
	cam.LookAt = center
	cam.Position = center.Add(types.XYZ(0, 0, radius*2.5+1))
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n"))
	} else {
		errMsg = fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n"))
	}

	return errors.New(strings.Trim(errMsg, "\n"))
}

// Push a frame to the error stack.
func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Select the default material for faces that are not preceded by usemtl.
func (r *wavefrontReader) defaultMaterial() int32 {
	const name = ""
	matIndex, exists := r.matNameToIndex[name]
	if !exists {
		mat := scene.DefaultMaterial()
		mat.Diffuse = types.XYZW(0.7, 0.7, 0.7, scene.NoTexture)
		matIndex = r.addMaterial(name, mat)
	}
	return matIndex
}

func (r *wavefrontReader) addMaterial(name string, mat scene.Material) int32 {
	r.scene.Materials = append(r.scene.Materials, mat)
	r.scene.MaterialNames = append(r.scene.MaterialNames, name)
	index := int32(len(r.scene.Materials) - 1)
	r.matNameToIndex[name] = index
	return index
}

// Open a resource referenced from res and parse it with fn.
func (r *wavefrontReader) include(res *Resource, lineNum int, directive, location string, fn func(*Resource) error) error {
	r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, directive))

	incRes, err := NewResource(location, res)
	if err != nil {
		return r.emitError(res.Path(), lineNum, err.Error())
	}
	defer incRes.Close()

	if err = fn(incRes); err != nil {
		return err
	}
	r.popFrame()
	return nil
}

// Parse wavefront object scene format.
func (r *wavefrontReader) parse(res *Resource) error {
	lineNum := 0
	var err error

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, "unsupported syntax for 'call'; expected 1 argument; got %d", len(lineTokens)-1)
			}
			if err = r.include(res, lineNum, "call", lineTokens[1], r.parse); err != nil {
				return err
			}
		case "mtllib":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, "unsupported syntax for 'mtllib'; expected at least 1 argument; got 0")
			}
			for _, lib := range lineTokens[1:] {
				if err = r.include(res, lineNum, "mtllib", lib, r.parseMaterials); err != nil {
					return err
				}
			}
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, "unsupported syntax for 'usemtl'; expected 1 argument; got %d", len(lineTokens)-1)
			}

			matIndex, exists := r.matNameToIndex[lineTokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, "undefined material with name '%s'", lineTokens[1])
			}
			r.curMaterial = matIndex
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.positions = append(r.positions, v)
		case "vn":
			if _, err := parseVec3(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.normals++
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.uvs = append(r.uvs, v)
		case "f":
			if err = r.parseFace(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "light_point", "light_dir":
			light, err := parseLight(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.scene.Lights = append(r.scene.Lights, light)
		case "camera_fov":
			r.scene.Camera.FOV, err = parseFloat32(lineTokens)
			r.cameraDefined = true
		case "camera_eye":
			r.scene.Camera.Position, err = parseVec3(lineTokens)
			r.cameraDefined = true
		case "camera_look":
			r.scene.Camera.LookAt, err = parseVec3(lineTokens)
			r.cameraDefined = true
		case "camera_up":
			r.scene.Camera.Up, err = parseVec3(lineTokens)
			r.cameraDefined = true
		}

		if err != nil {
			return r.emitError(res.Path(), lineNum, err.Error())
		}
	}

	return scanner.Err()
}

// Parse a light definition. Both light types use the format:
// light_point|light_dir x y z r g b intensity
// where xyz is the light position for point lights or the direction
// towards the light for directional lights.
func parseLight(lineTokens []string) (scene.Light, error) {
	if len(lineTokens) != 8 {
		return scene.Light{}, fmt.Errorf("unsupported syntax for '%s'; expected 7 arguments: x y z r g b intensity; got %d", lineTokens[0], len(lineTokens)-1)
	}

	var args [7]float32
	for index := range args {
		v, err := strconv.ParseFloat(lineTokens[index+1], 32)
		if err != nil {
			return scene.Light{}, err
		}
		args[index] = float32(v)
	}

	vec := types.XYZ(args[0], args[1], args[2])
	color := types.XYZ(args[3], args[4], args[5])
	if lineTokens[0] == "light_dir" {
		if vec.Len() == 0 {
			return scene.Light{}, fmt.Errorf("directional light requires a non-zero direction")
		}
		return scene.NewDirectionalLight(vec.Normalize(), color, args[6]), nil
	}
	return scene.NewPointLight(vec, color, args[6]), nil
}

// Parse face definition. Each face argument is comprised of 1, 2 or 3
// indices separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate an offset off the
// end of the vertex/uv list. Faces with more than 3 vertices are split into
// a triangle fan.
func (r *wavefrontReader) parseFace(lineTokens []string) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf("unsupported syntax for 'f'; expected at least 3 arguments; got %d", len(lineTokens)-1)
	}

	corners := make([]uint32, len(lineTokens)-1)
	expIndices := 0
	for arg := range corners {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		key := vertexKey{uv: -1}
		var err error
		key.pos, err = selectFaceCoordIndex(vTokens[0], len(r.positions))
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		if len(vTokens) > 1 && vTokens[1] != "" {
			key.uv, err = selectFaceCoordIndex(vTokens[1], len(r.uvs))
			if err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
		}
		corners[arg] = r.vertex(key)
	}

	if r.curMaterial < 0 {
		r.curMaterial = r.defaultMaterial()
	}

	for i := 1; i+1 < len(corners); i++ {
		r.scene.Indices = append(r.scene.Indices, corners[0], corners[i], corners[i+1])
		r.scene.MaterialIndices = append(r.scene.MaterialIndices, r.curMaterial)
	}
	return nil
}

// Get the index of the vertex for a position/uv pair, emitting it if it has
// not been referenced before.
func (r *wavefrontReader) vertex(key vertexKey) uint32 {
	if index, exists := r.vertexIndex[key]; exists {
		return index
	}

	pos := r.positions[key.pos]
	var uv types.Vec2
	if key.uv >= 0 {
		// Flip v so that v = 0 maps to the top texture row
		uv = types.XY(r.uvs[key.uv][0], 1-r.uvs[key.uv][1])
	}

	index := uint32(len(r.scene.TexCoords))
	r.scene.Vertices = append(r.scene.Vertices, pos[0], pos[1], pos[2])
	r.scene.TexCoords = append(r.scene.TexCoords, uv)
	r.vertexIndex[key] = index
	return index
}

// Parse a wavefront material library.
func (r *wavefrontReader) parseMaterials(res *Resource) error {
	lineNum := 0
	var mat *scene.Material

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		if lineTokens[0] == "newmtl" {
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, "unsupported syntax for 'newmtl'; expected 1 argument; got %d", len(lineTokens)-1)
			}
			if _, exists := r.matNameToIndex[lineTokens[1]]; exists {
				return r.emitError(res.Path(), lineNum, "material '%s' already defined", lineTokens[1])
			}
			index := r.addMaterial(lineTokens[1], scene.DefaultMaterial())
			mat = &r.scene.Materials[index]
			continue
		}

		if mat == nil {
			return r.emitError(res.Path(), lineNum, "got '%s' without a 'newmtl'", lineTokens[0])
		}
		if err := r.parseMaterialProperty(res, mat, lineTokens); err != nil {
			return r.emitError(res.Path(), lineNum, err.Error())
		}
	}

	return scanner.Err()
}

// Apply a single material library statement to mat.
func (r *wavefrontReader) parseMaterialProperty(res *Resource, mat *scene.Material, lineTokens []string) error {
	switch lineTokens[0] {
	case "Ka", "Kd", "Ks", "Ke", "Kr", "Tf":
		v, err := parseVec3(lineTokens)
		if err != nil {
			return err
		}

		var target *types.Vec4
		switch lineTokens[0] {
		case "Ka":
			target = &mat.Ambient
		case "Kd":
			target = &mat.Diffuse
		case "Ks":
			target = &mat.Specular
		case "Ke":
			target = &mat.Emission
		case "Kr":
			target = &mat.Reflection
		case "Tf":
			target = &mat.Refraction
		}
		// Keep the scalar parameter packed in W
		target[0], target[1], target[2] = v[0], v[1], v[2]
	case "Ns", "Pr", "Pm", "Ni", "d", "Tr":
		v, err := parseFloat32(lineTokens)
		if err != nil {
			return err
		}

		switch lineTokens[0] {
		case "Ns":
			mat.Specular[3] = v
		case "Pr":
			// Roughness shares the shininess slot; values <= 1 select it
			mat.Specular[3] = clamp01(v)
		case "Pm":
			mat.Reflection[3] = clamp01(v)
		case "Ni":
			mat.SetTransmission(mat.Transmission(), v)
		case "d":
			mat.Transparency[0] = clamp01(v)
			mat.SetTransmission(1-clamp01(v), mat.IOR())
		case "Tr":
			mat.Transparency[0] = 1 - clamp01(v)
			mat.SetTransmission(clamp01(v), mat.IOR())
		}
	case "map_Kd", "map_bump", "bump", "norm", "map_normal":
		if len(lineTokens) < 2 {
			return fmt.Errorf("unsupported syntax for '%s'; expected 1 argument; got 0", lineTokens[0])
		}

		// Options such as -bm precede the file name
		location := lineTokens[len(lineTokens)-1]
		textures := r.normalTextures
		if lineTokens[0] == "map_Kd" {
			textures = r.diffuseTextures
		}

		layer, err := r.loadTexture(res, textures, location)
		if err != nil {
			return err
		}
		if layer < 0 {
			return nil
		}

		if textures == r.diffuseTextures {
			mat.SetTextures(layer, mat.NormalTexture())
		} else {
			mat.SetTextures(mat.DiffuseTexture(), layer)
		}
	}
	return nil
}

// Load a texture referenced from res into a texture array and return its
// layer. Missing textures are skipped with a warning and return -1.
func (r *wavefrontReader) loadTexture(res *Resource, textures *TextureArray, location string) (int, error) {
	imgRes, err := NewResource(location, res)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Warningf("ignoring missing texture %s", location)
			return -1, nil
		}
		return -1, err
	}
	defer imgRes.Close()

	return textures.Load(imgRes)
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = int(index - 1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf("unsupported syntax for '%s'; expected 1 argument; got %d", lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf("unsupported syntax for '%s'; expected 3 arguments; got %d", lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row. A third (w) component is ignored.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf("unsupported syntax for '%s'; expected 2 arguments; got %d", lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
