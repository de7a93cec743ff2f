// Package glbuild generates the GLSL programs used to draw sketches and
// tessellated spheres. Programs are written in the combined format understood
// by glgl.ParseCombined, with "#shader vertex" and "#shader fragment" sections.
package glbuild

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glsketch"
)

// VersionStr is the default GLSL version directive.
const VersionStr = "#version 330 core\n"

// Attribute and uniform names shared by generated programs and the code that binds them.
const (
	AttribPosition = "vPosition"
	AttribColor    = "vColor"
	UniformPointSz = "uPointSize"
	UniformYaw     = "uYaw"
	UniformPitch   = "uPitch"
	UniformCamDist = "uCamDist"
	UniformAspect  = "uAspect"
	// Phong reflection uniforms of the sphere program, see [Phong].
	UniformKd        = "uKd"
	UniformKs        = "uKs"
	UniformShininess = "uShininess"
	UniformLe        = "uLe"
	UniformLa        = "uLa"
)

// Phong holds the reflection parameters fed to the sphere program's uniforms.
type Phong struct {
	// Kd and Ks are the diffuse and specular reflection coefficients in [0,1].
	Kd, Ks float32
	// Shininess is the specular exponent. Must be positive.
	Shininess float32
	// Le is the emitted radiance of the light and La the ambient radiance.
	Le, La float32
}

// DefaultPhong returns the reflection parameters the sphere viewer starts with.
func DefaultPhong() Phong {
	return Phong{Kd: 0.8, Ks: 0.5, Shininess: 20, Le: 1, La: 0.2}
}

// Validate checks the parameters are finite and within range.
func (ph Phong) Validate() error {
	var errs []error
	for _, c := range [...]struct {
		name     string
		v, lo, hi float32
	}{
		{name: "kd", v: ph.Kd, lo: 0, hi: 1},
		{name: "ks", v: ph.Ks, lo: 0, hi: 1},
		{name: "shininess", v: ph.Shininess, lo: 1e-6, hi: 1e4},
		{name: "le", v: ph.Le, lo: 0, hi: 1e4},
		{name: "la", v: ph.La, lo: 0, hi: 1e4},
	} {
		if !(c.v >= c.lo && c.v <= c.hi) {
			errs = append(errs, fmt.Errorf("phong %s=%v outside [%v,%v]", c.name, c.v, c.lo, c.hi))
		}
	}
	return errors.Join(errs...)
}

// Programmer writes shader programs. Its zero value is not ready for use, see [NewDefaultProgrammer].
type Programmer struct {
	scratch []byte
	version string
	// LightDir is the view space direction towards the directional light shading spheres.
	LightDir ms3.Vec
	// SphereColor is the base color of shaded spheres.
	SphereColor glsketch.Color
}

// NewDefaultProgrammer returns a Programmer with reasonable default parameters for use with glgl package on the local machine.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratch:     make([]byte, 0, 2048),
		version:     VersionStr,
		LightDir:    ms3.Unit(ms3.Vec{X: 1, Y: 1, Z: 1}),
		SphereColor: glsketch.Color{R: 0.9, G: 0.9, B: 0.9, A: 1},
	}
}

// SetVersion sets the "#version" directive written at the top of each shader.
func (p *Programmer) SetVersion(version int, profile string) error {
	if version < 100 || version > 999 {
		return errors.New("invalid GLSL version")
	}
	b := append([]byte("#version "), strconv.Itoa(version)...)
	if profile != "" {
		b = append(b, ' ')
		b = append(b, profile...)
	}
	b = append(b, '\n')
	p.version = string(b)
	return nil
}

// WriteSketchProgram writes the program that draws colored 2D vertices given in
// normalized device coordinates. Point primitives are sized by the uPointSize uniform.
func (p *Programmer) WriteSketchProgram(w io.Writer) (int, error) {
	b := p.scratch[:0]
	b = p.appendHeader(b, "vertex")
	b = append(b, "in vec2 "+AttribPosition+";\nin vec4 "+AttribColor+";\n"...)
	b = append(b, "uniform float "+UniformPointSz+";\n"...)
	b = append(b, `out vec4 fColor;

void main() {
	gl_Position = vec4(`+AttribPosition+`, 0.0, 1.0);
	gl_PointSize = `+UniformPointSz+`;
	fColor = `+AttribColor+`;
}

`...)
	b = p.appendHeader(b, "fragment")
	b = append(b, `in vec4 fColor;
out vec4 fragColor;

void main() {
	fragColor = fColor;
}
`...)
	p.scratch = b
	return w.Write(b)
}

// WriteSphereProgram writes the program that draws unit sphere vertices given
// as homogeneous 4D positions. The camera orbits the origin with the yaw and
// pitch uniforms at distance uCamDist. Since vertices lie on the unit sphere
// the rotated position doubles as the surface normal. Faces are shaded with
// the Blinn-Phong model whose coefficients are the uniforms named by [Phong].
func (p *Programmer) WriteSphereProgram(w io.Writer) (int, error) {
	if !p.SphereColor.IsValid() {
		return 0, errors.New("invalid sphere color")
	}
	lightDir := ms3.Unit(p.LightDir)
	if math.IsNaN(lightDir.X) || math.IsNaN(lightDir.Y) || math.IsNaN(lightDir.Z) {
		return 0, errors.New("zero or non-finite light direction")
	}
	b := p.scratch[:0]
	b = p.appendHeader(b, "vertex")
	b = append(b, "in vec4 "+AttribPosition+";\n"...)
	b = appendFloatUniforms(b, UniformYaw, UniformPitch, UniformCamDist, UniformAspect)
	b = append(b, `out vec3 fNormal;
out vec3 fPosition;

const float near = 0.01;
const float far = 100.0;
const float focal = 1.732050808; // 60 degree vertical field of view.

void main() {
	float cy = cos(`+UniformYaw+`);
	float sy = sin(`+UniformYaw+`);
	float cp = cos(`+UniformPitch+`);
	float sp = sin(`+UniformPitch+`);
	mat3 yaw = mat3(cy, 0.0, -sy, 0.0, 1.0, 0.0, sy, 0.0, cy);
	mat3 pitch = mat3(1.0, 0.0, 0.0, 0.0, cp, sp, 0.0, -sp, cp);
	vec3 p = pitch * yaw * (`+AttribPosition+`.xyz / `+AttribPosition+`.w);
	fNormal = p;
	p.z -= `+UniformCamDist+`;
	fPosition = p;
	gl_Position = vec4(p.x*focal/`+UniformAspect+`, p.y*focal, (p.z*(far+near) + 2.0*far*near)/(near-far), -p.z);
}

`...)
	b = p.appendHeader(b, "fragment")
	b = append(b, "in vec3 fNormal;\nin vec3 fPosition;\nout vec4 fragColor;\n\n"...)
	b = appendFloatUniforms(b, UniformKd, UniformKs, UniformShininess, UniformLe, UniformLa)
	b = AppendVec3Decl(b, "const vec3 lightDir", lightDir)
	b = append(b, "const vec4 baseColor = vec4("...)
	arr := p.SphereColor.Array()
	b = AppendFloats(b, ',', '-', '.', arr[:]...)
	b = append(b, `);

void main() {
	vec3 n = normalize(fNormal);
	vec3 v = normalize(-fPosition); // Camera sits at the view space origin.
	vec3 h = normalize(lightDir + v);
	float diffuse = max(dot(n, lightDir), 0.0);
	float specular = 0.0;
	if (diffuse > 0.0) {
		specular = pow(max(dot(n, h), 0.0), `+UniformShininess+`);
	}
	vec3 radiance = baseColor.rgb*(`+UniformKd+`*`+UniformLe+`*diffuse + `+UniformLa+`) + vec3(`+UniformKs+`*`+UniformLe+`*specular);
	fragColor = vec4(clamp(radiance, 0.0, 1.0), baseColor.a);
}
`...)
	p.scratch = b
	return w.Write(b)
}

func appendFloatUniforms(b []byte, names ...string) []byte {
	for _, name := range names {
		b = append(b, "uniform float "...)
		b = append(b, name...)
		b = append(b, ";\n"...)
	}
	return b
}

func (p *Programmer) appendHeader(b []byte, stage string) []byte {
	b = append(b, "#shader "...)
	b = append(b, stage...)
	b = append(b, '\n')
	b = append(b, p.version...)
	return b
}

// AppendVec3Decl appends a vec3 variable declaration. The variable name may carry qualifiers such as "const vec3 name".
func AppendVec3Decl(b []byte, vec3Varname string, v ms3.Vec) []byte {
	if !bytes.HasPrefix([]byte(vec3Varname), []byte("const ")) {
		b = append(b, "vec3 "...)
	}
	b = append(b, vec3Varname...)
	b = append(b, "=vec3("...)
	arr := v.Array()
	b = AppendFloats(b, ',', '-', '.', arr[:]...)
	b = append(b, ')', ';', '\n')
	return b
}

// AppendFloatDecl appends a float variable declaration. The variable name may carry qualifiers such as "const float name".
func AppendFloatDecl(b []byte, floatVarname string, v float32) []byte {
	if !bytes.HasPrefix([]byte(floatVarname), []byte("const ")) {
		b = append(b, "float "...)
	}
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = AppendFloat(b, '-', '.', v)
	b = append(b, ';', '\n')
	return b
}

const decimalDigits = 9

// AppendFloat appends v in decimal notation with trailing zeros trimmed.
// neg and decimal replace the minus sign and the decimal point respectively.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start+1 && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

// AppendFloats appends the values in s separated by sep. A zero sep appends no separator.
func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}
